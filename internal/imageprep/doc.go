// Package imageprep shrinks user photos to a bounded JPEG before they are sent for transformation.
package imageprep
