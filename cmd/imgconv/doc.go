// Imgconv converts an image file to another format. Both formats are
// chosen from the file extensions: .jpg/.jpeg, .ppm and .bmp.
//
// Usage:
//
//	imgconv [flags] <in_file> <out_file>
//	imgconv --probe <in_file>
//
// Exit codes:
//
//	0  converted
//	1  wrong arguments or configuration
//	2  unknown input format
//	3  unknown output format
//	4  loading failed
//	5  saving failed
package main
