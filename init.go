package imgconv

func init() {
	registerFormat(JPEG, jpegHandler{}, "\xff\xd8")
	registerFormat(PPM, ppmHandler{}, "P6", "P3")
	registerFormat(BMP, bmpHandler{}, "BM????\x00\x00\x00\x00")
}
