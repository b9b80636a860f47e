// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"sync"

	"golang.org/x/crypto/twofish"
)

// CipherKind selects the bulk cipher used for the payload, per spec.md §3
// header flags (bit 2 = AES, bit 3 = Twofish; exactly one must be set).
type CipherKind int

const (
	CipherAES CipherKind = iota
	CipherTwofish
)

func newBlockCipher(kind CipherKind, key []byte) (cipher.Block, error) {
	switch kind {
	case CipherAES:
		return aes.NewCipher(key)
	case CipherTwofish:
		return twofish.NewCipher(key)
	default:
		return nil, newErr(DecryptErrorKind, nil)
	}
}

// pkcs7Pad appends PKCS#7 padding so len(out) is a multiple of blockSize.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

// pkcs7Unpad strips PKCS#7 padding. When strict is true, every pad byte
// must equal the pad length (standard PKCS#7). When strict is false, the
// engine tolerates "likely messed up" trailing bytes written by older,
// non-conformant Twofish encoders: it trusts the last byte as the pad
// length without checking the other pad bytes, and if that byte is 0 or
// larger than the block size it returns the data unchanged, as if the
// writer emitted no padding. Lenient mode never returns an error for
// non-empty, block-aligned input. This asymmetry (lenient load, strict
// save) is spec.md §4.2 / §9's documented compatibility behavior.
func pkcs7Unpad(data []byte, blockSize int, strict bool) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, newErr(DecryptErrorKind, nil)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		if strict {
			return nil, newErr(DecryptErrorKind, nil)
		}
		// Lenient: no recognizable padding: assume the writer emitted none.
		return data, nil
	}
	if strict {
		for i := len(data) - padLen; i < len(data); i++ {
			if data[i] != byte(padLen) {
				return nil, newErr(DecryptErrorKind, nil)
			}
		}
	}
	return data[:len(data)-padLen], nil
}

// cbcEncrypt encrypts plaintext under key/iv with the given cipher, always
// using standard strict PKCS#7 padding (the save path per spec.md §9).
func cbcEncrypt(kind CipherKind, key, iv, plaintext []byte) ([]byte, error) {
	block, err := newBlockCipher(kind, key)
	if err != nil {
		return nil, newErr(EncryptErrorKind, err)
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// cbcDecrypt decrypts ciphertext under key/iv. lenient toggles the PKCS#7
// strictness, per spec.md §4.2: Load passes lenient for Twofish payloads
// and strict for AES payloads.
func cbcDecrypt(kind CipherKind, key, iv, ciphertext []byte, lenient bool) ([]byte, error) {
	block, err := newBlockCipher(kind, key)
	if err != nil {
		return nil, newErr(DecryptErrorKind, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, newErr(DecryptErrorKind, nil)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	plain, err := pkcs7Unpad(out, block.BlockSize(), !lenient)
	if err != nil {
		wipeBytes(out)
		return nil, err
	}
	return plain, nil
}

// transformKeyBlock applies rounds of AES-256-ECB encryption, keyed by
// seed, to src, writing the result into dst. Grounded on the reference
// kdbcrypt package's transformKeyBlock (there run via GOST Magma; here
// via AES, per spec.md §4.2's "AES-256-ECB transform").
func transformKeyBlock(dst, src []byte, block cipher.Block, rounds uint32, half int, progress *Progress, startPct int) error {
	copy(dst, src)
	const reportEvery = 1 << 14
	for i := uint32(0); i < rounds; i++ {
		block.Encrypt(dst, dst)
		if err := progress.pollCancel(); err != nil {
			return err
		}
		if half == 0 && i%reportEvery == 0 {
			progress.advance(startPct + int(int64(i)*weightKDF/2/int64(rounds)))
		}
	}
	return nil
}

// deriveMasterKey runs the full KDF of spec.md §4.2: the composite key's
// 32 bytes are split into two 16-byte halves, each run through `rounds`
// AES-256-ECB rounds keyed by transformSeed (in parallel, as the reference
// implementation does), concatenated, SHA-256'd, then combined with
// masterSeed via a second SHA-256 to produce the master key.
//
// base is the cumulative percent already completed by earlier phases in
// the caller's pipeline (0 for Load, where KDF runs first; weightPack for
// Save, where packing precedes it), so the reported percent climbs
// monotonically across the whole load/save sequence instead of resetting.
//
// Returns Cancelled if progress.RequestCancel was called between rounds,
// wiping all intermediate buffers first.
func deriveMasterKey(compositeKey *SecureBytes, masterSeed [16]byte, transformSeed [32]byte, rounds uint32, progress *Progress, base int) (*SecureBytes, error) {
	if compositeKey.Len() != 32 {
		return nil, newErr(DecryptErrorKind, nil)
	}
	progress.setPhase(PhaseKeyDerivation, base)

	block, err := aes.NewCipher(transformSeed[:])
	if err != nil {
		return nil, newErr(DecryptErrorKind, err)
	}

	src := compositeKey.Bytes()
	tk := make([]byte, 32)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = transformKeyBlock(tk[:16], src[:16], block, rounds, 0, progress, base)
	}()
	go func() {
		defer wg.Done()
		errs[1] = transformKeyBlock(tk[16:], src[16:], block, rounds, 1, progress, base)
	}()
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			wipeBytes(tk)
			return nil, e
		}
	}

	sum := sha256.Sum256(tk)
	wipeBytes(tk)

	h := sha256.New()
	h.Write(masterSeed[:])
	h.Write(sum[:])
	master := h.Sum(nil)
	wipeBytes(sum[:])

	progress.advance(base + weightKDF)
	return NewSecureBytes(master), nil
}
