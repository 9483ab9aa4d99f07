package apidian

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// Rutas relativas a la URL base (…/api/ubl2.1).
const (
	PathInvoice         = "/invoice"
	PathCreditNote      = "/credit-note"
	PathDebitNote       = "/debit-note"
	PathSupportDocument = "/support-document"
	PathAdjustmentNote  = "/sd-credit-note"

	PathConfigSoftware    = "/config/software"
	PathConfigResolution  = "/config/resolution"
	PathConfigEnvironment = "/config/environment"
	PathNumberingRange    = "/numbering-range"
	PathPlanInfo          = "/plan/infoplanuser"
)

var documentPaths = map[entity.DocumentKind]string{
	entity.KindInvoice:         PathInvoice,
	entity.KindCreditNote:      PathCreditNote,
	entity.KindDebitNote:       PathDebitNote,
	entity.KindSupportDocument: PathSupportDocument,
	entity.KindAdjustmentNote:  PathAdjustmentNote,
}

// DocumentPath ruta de envío del tipo. En habilitación se agrega /{test_set_id}; documento
// soporte y su nota de ajuste usan el test set de documento soporte.
func DocumentPath(kind entity.DocumentKind, s *entity.Settings) (string, error) {
	path, ok := documentPaths[kind]
	if !ok {
		return "", domain.NewValidationFailure("type", fmt.Sprintf("tipo de documento desconocido %q", kind))
	}
	if s == nil {
		return "", domain.NewValidationFailure("settings", "configuración no cargada")
	}

	softwareField, testSetField := "software_id", "test_set_id"
	softwareID := s.SoftwareID
	if kind.UsesSupportCredentials() {
		softwareField, testSetField = "ds_software_id", "ds_test_set_id"
		softwareID = s.SupportSoftwareID
	}
	if strings.TrimSpace(softwareID) == "" {
		return "", domain.NewValidationFailure(softwareField, "configure el Software ID en Configuración > API DIAN")
	}
	if !s.IsTest() {
		return path, nil
	}
	testSet := strings.TrimSpace(s.TestSetFor(kind))
	if testSet == "" {
		return "", domain.NewValidationFailure(testSetField, "configure el TestSetId para el ambiente de habilitación")
	}
	return path + "/" + url.PathEscape(testSet), nil
}

// CustomerPath consulta de adquiriente por código de tipo de documento y número.
func CustomerPath(typeCode, number string) string {
	return "/customer/" + url.PathEscape(typeCode) + "/" + url.PathEscape(number)
}

// DownloadPath descarga de artefactos generados por la API (PDF, AttachedDocument).
func DownloadPath(nit, filename string) string {
	return "/download/" + url.PathEscape(nit) + "/" + url.PathEscape(filename)
}
