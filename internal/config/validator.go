package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/robfig/cron/v3"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("cron", isCronSpec); err != nil {
		return nil, nil, fmt.Errorf("failed to register cron validation: %w", err)
	}
	if err := validate.RegisterTranslation("cron", trans, func(ut ut.Translator) error {
		return ut.Add("cron", "{0} must be a cron expression or descriptor such as @every 1m", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("cron", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register cron translation: %w", err)
	}

	return validate, trans, nil
}

// isCronSpec accepts an empty value, which disables periodic refresh.
func isCronSpec(fl validator.FieldLevel) bool {
	spec := strings.TrimSpace(fl.Field().String())
	if spec == "" {
		return true
	}
	_, err := cron.ParseStandard(spec)
	return err == nil
}
