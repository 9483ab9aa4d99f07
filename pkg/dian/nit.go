package dian

import (
	"fmt"
	"strconv"
	"unicode"
)

// pesos primos para el dígito de verificación (módulo 11, DIAN).
// Se aplican de derecha a izquierda: el último dígito del NIT se multiplica por 3.
var nitWeights = [15]int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

// ComputeNITVerificationDigit calcula el dígito de verificación de un NIT o cédula sin DV.
// Acepta puntos, guiones y espacios ("900.123.456"); solo cuenta los dígitos.
//
//	1085286295 → 5×3 + 9×7 + 2×13 + 6×17 + 8×19 + 2×23 + 5×29 + 8×37 + 0×41 + 1×43 = 888
//	888 % 11 = 8 → 11 - 8 = 3
func ComputeNITVerificationDigit(taxID string) (int, error) {
	digits := extractDigits(taxID)
	if len(digits) == 0 {
		return 0, fmt.Errorf("dian: identificación sin dígitos: %q", taxID)
	}
	if len(digits) > len(nitWeights) {
		return 0, fmt.Errorf("dian: identificación de %d dígitos excede el máximo de %d", len(digits), len(nitWeights))
	}
	var sum int
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		sum += d * nitWeights[i]
	}
	remainder := sum % 11
	if remainder == 0 || remainder == 1 {
		return remainder, nil
	}
	return 11 - remainder, nil
}

// ValidateNITVerificationDigit valida un NIT cuyo último dígito es el DV
// ("800197268-4", "800.197.268-4" o "8001972684").
func ValidateNITVerificationDigit(taxIDWithDV string) error {
	digits := extractDigits(taxIDWithDV)
	if len(digits) < 2 {
		return fmt.Errorf("dian: NIT con DV debe tener al menos 2 dígitos, se encontraron %d", len(digits))
	}
	base := string(digits[:len(digits)-1])
	got := int(digits[len(digits)-1] - '0')
	expected, err := ComputeNITVerificationDigit(base)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("dian: dígito de verificación del NIT inválido: esperado %d, recibido %d", expected, got)
	}
	return nil
}

// VerificationDigitString devuelve el DV como string, o "" si la identificación no es calculable.
func VerificationDigitString(taxID string) string {
	dv, err := ComputeNITVerificationDigit(taxID)
	if err != nil {
		return ""
	}
	return strconv.Itoa(dv)
}

// DigitsOnly deja solo los dígitos de una identificación.
func DigitsOnly(s string) string {
	return string(extractDigits(s))
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			out = append(out, byte(r))
		}
	}
	return out
}
