// Package formats provides parsers for Wavefront OBJ geometry and MTL
// material library files.
//
// Both parsers work on an in-memory buffer through the cursor helpers in
// cursor.go and fill the flat, index-linked Model defined in obj_model.go.
// Malformed input is reported through a zap.Logger; only problems that
// leave the model unusable are returned as errors.
package formats
