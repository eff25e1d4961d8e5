// Package cr3 extracts embedded JPEG previews and EXIF metadata from Canon CR3 raw files.
//
// CR3 is an ISO BMFF container. Previews are located by streaming the file for SOI/EOI
// marker pairs, metadata is found in the uuid box nested in moov, and the TIFF blob found
// there can be minimized and spliced into a JPEG as an APP1 segment.
package cr3
