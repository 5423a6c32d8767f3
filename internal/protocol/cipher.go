package protocol

// initialKey seeds the autokey XOR stream. The device resets to this
// constant for every payload; there is no cross-payload state.
const initialKey byte = 171

// Encrypt obfuscates a plaintext payload for transmission to the device.
//
// Each output byte is the running key XORed with the input byte, and the
// just-produced ciphertext byte becomes the key for the next position.
// The empty payload encrypts to the empty payload.
func Encrypt(plaintext []byte) []byte {
	out := make([]byte, len(plaintext))
	key := initialKey
	for i, b := range plaintext {
		out[i] = key ^ b
		key = out[i]
	}
	return out
}

// Decrypt reverses Encrypt. The key schedule is driven by the ciphertext
// bytes, so both sides reproduce the same running key. Decrypt never
// fails: it is total over all byte sequences.
func Decrypt(ciphertext []byte) []byte {
	out := make([]byte, len(ciphertext))
	key := initialKey
	for i, b := range ciphertext {
		out[i] = key ^ b
		key = b
	}
	return out
}
