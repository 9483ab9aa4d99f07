package siigo

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Codificaciones, en el orden en que se prueban.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
	EncodingCP1252 = "cp1252"
	EncodingLossy  = "utf-8-replace"
)

var errUndecodable = errors.New("bytes no válidos para la codificación")

type decoder struct {
	name   string
	decode func([]byte) (string, error)
}

// Las exportaciones del POS no traen una codificación confiable (a veces la declaración
// dice UTF-8 y el contenido es ANSI). Latin-1 acepta cualquier byte, así que se considera
// fallida si produce controles C1 (0x80-0x9F), que en la práctica delatan un Windows-1252.
var decoders = []decoder{
	{EncodingUTF8, decodeUTF8},
	{EncodingLatin1, decodeLatin1},
	{EncodingCP1252, decodeCP1252},
}

// Decode convierte el XML crudo a UTF-8 con la primera codificación que no falle.
// Último recurso: UTF-8 con reemplazo de bytes inválidos.
func Decode(raw []byte) (text, encoding string) {
	for _, d := range decoders {
		if s, err := d.decode(raw); err == nil {
			return s, d.name
		}
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), EncodingLossy
}

func decodeUTF8(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", errUndecodable
	}
	return strings.TrimPrefix(string(raw), "\ufeff"), nil
}

func decodeLatin1(raw []byte) (string, error) {
	for _, b := range raw {
		if b >= 0x80 && b <= 0x9F {
			return "", errUndecodable
		}
	}
	return charmap.ISO8859_1.NewDecoder().String(string(raw))
}

func decodeCP1252(raw []byte) (string, error) {
	s, err := charmap.Windows1252.NewDecoder().String(string(raw))
	if err != nil {
		return "", err
	}
	// 0x81, 0x8D, 0x8F, 0x90 y 0x9D no tienen carácter asignado y salen como controles C1.
	for _, r := range s {
		if r == utf8.RuneError || (r >= 0x80 && r <= 0x9F) {
			return "", errUndecodable
		}
	}
	return s, nil
}
