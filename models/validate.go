// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model nedir?
// Backend API'sinden gelen/giden verilerin Go karşılığıdır.
// json tag'leri backend kontratının field isimlerini (camelCase) takip eder.
//
// Bu dosya paylaşılan validator instance'ını kurar.
// Form validation client tarafında, network çağrısından ÖNCE yapılır —
// client'ın kendi tespit edebileceği hatalar için round-trip harcanmaz.
package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/akay/lokanta/pkg/i18n"
)

// validate, tüm request modellerinin paylaştığı validator instance'ı.
// validator.New pahalıdır (struct tag cache'i kurar) — bir kez oluşturulur.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct, validator hatalarını alan bazlı okunur mesajlara çevirir.
// Dönen error tek bir satırdır: "email is invalid; password is too short" gibi —
// çağıran view bunu olduğu gibi gösterebilir.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// fieldMessage, tek bir validation hatasını kullanıcının dilinde mesaja çevirir.
func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return i18n.Tf("validation.required", field)
	case "email":
		return i18n.Tf("validation.email", field)
	case "min":
		return i18n.Tf("validation.min", field, fe.Param())
	case "max":
		return i18n.Tf("validation.max", field, fe.Param())
	case "gte":
		return i18n.Tf("validation.gte", field, fe.Param())
	case "lte":
		return i18n.Tf("validation.lte", field, fe.Param())
	case "gtfield":
		return i18n.Tf("validation.gtfield", field, strings.ToLower(fe.Param()))
	case "oneof":
		return i18n.Tf("validation.oneof", field, fe.Param())
	default:
		return i18n.Tf("validation.invalid", field)
	}
}
