package types

// base32Alphabet is the standard 0-9A-V digit set used for item identifier suffixes.
const base32Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUV"

// IdentifierSuffixWidth is the fixed width of generated identifier suffixes.
const IdentifierSuffixWidth = 6

// IntToBase32 renders n in base32, left-padded with zeros to width.
func IntToBase32(n int64, width int) string {
	base := int64(len(base32Alphabet))

	var reversed []byte
	for n != 0 {
		reversed = append(reversed, base32Alphabet[n%base])
		n /= base
	}
	for len(reversed) < width {
		reversed = append(reversed, '0')
	}

	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return string(reversed)
}
