package kdf

func processBlock(out, in1, in2 *block) {
	processBlockGeneric(out, in1, in2, false)
}

func processBlockXOR(out, in1, in2 *block) {
	processBlockGeneric(out, in1, in2, true)
}

// processBlockGeneric is the compression function G: a row pass and a column
// pass of BlaMka rounds over the 8x8 matrix of 16-byte registers.
func processBlockGeneric(out, in1, in2 *block, xor bool) {
	var t block
	for i := range t {
		t[i] = in1[i] ^ in2[i]
	}
	for i := 0; i < blockLength; i += 16 {
		blamka(
			&t[i+0], &t[i+1], &t[i+2], &t[i+3],
			&t[i+4], &t[i+5], &t[i+6], &t[i+7],
			&t[i+8], &t[i+9], &t[i+10], &t[i+11],
			&t[i+12], &t[i+13], &t[i+14], &t[i+15],
		)
	}
	for i := 0; i < blockLength/8; i += 2 {
		blamka(
			&t[i], &t[i+1], &t[16+i], &t[16+i+1],
			&t[32+i], &t[32+i+1], &t[48+i], &t[48+i+1],
			&t[64+i], &t[64+i+1], &t[80+i], &t[80+i+1],
			&t[96+i], &t[96+i+1], &t[112+i], &t[112+i+1],
		)
	}
	if xor {
		for i := range t {
			out[i] ^= in1[i] ^ in2[i] ^ t[i]
		}
	} else {
		for i := range t {
			out[i] = in1[i] ^ in2[i] ^ t[i]
		}
	}
}

func fBlaMka(x, y uint64) uint64 {
	return x + y + 2*uint64(uint32(x))*uint64(uint32(y))
}

func gb(a, b, c, d *uint64) {
	*a = fBlaMka(*a, *b)
	*d ^= *a
	*d = *d>>32 | *d<<32
	*c = fBlaMka(*c, *d)
	*b ^= *c
	*b = *b>>24 | *b<<40

	*a = fBlaMka(*a, *b)
	*d ^= *a
	*d = *d>>16 | *d<<48
	*c = fBlaMka(*c, *d)
	*b ^= *c
	*b = *b<<1 | *b>>63
}

func blamka(t00, t01, t02, t03, t04, t05, t06, t07, t08, t09, t10, t11, t12, t13, t14, t15 *uint64) {
	gb(t00, t04, t08, t12)
	gb(t01, t05, t09, t13)
	gb(t02, t06, t10, t14)
	gb(t03, t07, t11, t15)

	gb(t00, t05, t10, t15)
	gb(t01, t06, t11, t12)
	gb(t02, t07, t08, t13)
	gb(t03, t04, t09, t14)
}
