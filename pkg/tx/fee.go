package tx

// EstimatedLength returns the byte length fee estimators should be given
// for a transaction. For single-sig origins this is the serialized length,
// since the signature slot is always present. Multisig origins are padded
// with the signatures still missing.
func EstimatedLength(t *Transaction) int {
	n := len(t.Serialize())
	c := t.Auth.Origin
	if c.HashMode.IsSingleSig() {
		return n
	}
	var sigs int
	for _, f := range c.Fields {
		if f.Type == FieldSignatureCompressed || f.Type == FieldSignatureUncompressed {
			sigs++
		}
	}
	if missing := int(c.SignaturesRequired) - sigs; missing > 0 {
		// Each missing signature replaces a 34-byte public key field with a
		// 66-byte signature field.
		n += missing * (66 - 34)
	}
	return n
}
