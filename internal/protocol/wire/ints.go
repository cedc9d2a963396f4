package wire

// AppendInt appends v in the shortest big-endian two's complement form.
// Zero is written as a single byte so that an empty run stays reserved for blank.
func AppendInt(dst []byte, v int64) []byte {
	n := 8
	for n > 1 {
		top := v >> uint((n-1)*8-1)
		if top != 0 && top != -1 {
			break
		}
		n--
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>uint(i*8)))
	}
	return dst
}

// AppendUint appends v in the shortest big-endian form, at least one byte.
func AppendUint(dst []byte, v uint64) []byte {
	n := 1
	for n < 8 && v>>uint(n*8) != 0 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>uint(i*8)))
	}
	return dst
}

// DecodeInt reads a 1-8 byte sign-extended big-endian integer.
func DecodeInt(b []byte) (int64, Status) {
	if len(b) == 0 || len(b) > 8 {
		return 0, IncompleteData
	}
	v := int64(int8(b[0]))
	for _, c := range b[1:] {
		v = v<<8 | int64(c)
	}
	return v, Success
}

// DecodeUint reads a 1-8 byte big-endian unsigned integer.
func DecodeUint(b []byte) (uint64, Status) {
	if len(b) == 0 || len(b) > 8 {
		return 0, IncompleteData
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, Success
}
