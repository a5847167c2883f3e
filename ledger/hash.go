package ledger

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/suites"
)

// HashFactory supplies the hash function used for block digests.
type HashFactory = kyber.HashFactory

// The Ed25519 suite hashes with SHA-256.
var defaultHashFactory HashFactory = suites.MustFind("Ed25519")

// Digest computes the hex encoded hash of a block's content and its predecessor's hash.
// The payload is serialized as canonical JSON, so equal payloads always give equal digests.
func Digest(index int, timestamp string, payload any, prevHash string) (string, error) {
	return digest(defaultHashFactory, index, timestamp, payload, prevHash)
}

func digest(hf HashFactory, index int, timestamp string, payload any, prevHash string) (string, error) {
	canonical, err := canonicalPayload(payload)
	if err != nil {
		return "", err
	}
	return hashFields(hf, index, timestamp, canonical, prevHash), nil
}

// hashFields hashes the concatenation index || timestamp || payload || prevHash.
func hashFields(hf HashFactory, index int, timestamp string, payload []byte, prevHash string) string {
	h := hf.Hash()
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte(timestamp))
	h.Write(payload)
	h.Write([]byte(prevHash))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalPayload serializes payload as JSON with sorted object keys, no insignificant
// whitespace and no HTML escaping. Numbers keep their literal form. Payloads that would
// lose information on the way, invalid UTF-8 or repeated object keys, are rejected.
func canonicalPayload(payload any) ([]byte, error) {
	raw, err := encodeJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadSerialization, err)
	}
	if err := checkLossless(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadSerialization, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadSerialization, err)
	}
	canonical, err := encodeJSON(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadSerialization, err)
	}
	return canonical, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

var (
	errInvalidUTF8  = errors.New("invalid UTF-8")
	errDuplicateKey = errors.New("duplicate object key")
)

// checkLossless rejects encoded JSON whose decoding would not round trip: raw bytes that
// are not UTF-8, \ufffd escapes (encoding/json writes them in place of invalid UTF-8 in
// Go strings) and objects with a repeated key.
func checkLossless(raw []byte) error {
	if !utf8.Valid(raw) || hasReplacementEscape(raw) {
		return errInvalidUTF8
	}
	return checkDuplicateKeys(raw)
}

// hasReplacementEscape reports whether raw contains the escape \ufffd. Backslashes only
// occur inside strings, so no string tracking is needed.
func hasReplacementEscape(raw []byte) bool {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			continue
		}
		if raw[i+1] == 'u' && i+6 <= len(raw) && bytes.EqualFold(raw[i+2:i+6], []byte("fffd")) {
			return true
		}
		i++ // skip the escaped character
	}
	return false
}

type jsonFrame struct {
	keys      map[string]struct{} // nil for arrays
	expectKey bool
}

func checkDuplicateKeys(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var stack []*jsonFrame
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var top *jsonFrame
		if len(stack) > 0 {
			top = stack[len(stack)-1]
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, &jsonFrame{keys: map[string]struct{}{}, expectKey: true})
			case '[':
				stack = append(stack, &jsonFrame{})
			default:
				stack = stack[:len(stack)-1]
				if len(stack) > 0 && stack[len(stack)-1].keys != nil {
					stack[len(stack)-1].expectKey = true
				}
			}
		case string:
			if top != nil && top.keys != nil && top.expectKey {
				if _, ok := top.keys[v]; ok {
					return fmt.Errorf("%w %q", errDuplicateKey, v)
				}
				top.keys[v] = struct{}{}
				top.expectKey = false
				continue
			}
			if top != nil && top.keys != nil {
				top.expectKey = true
			}
		default:
			if top != nil && top.keys != nil {
				top.expectKey = true
			}
		}
	}
}
