package grade

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classportal/core"
)

var (
	gradeKindTag  = "gradekind"
	gradeKindText = "invalid grade kind"
)

func init() {
	_ = core.Validate.RegisterValidation(gradeKindTag, func(fl validator.FieldLevel) bool {
		return core.ContainsString(Kinds, fl.Field().String())
	})
	core.RegisterCustomTranslation(core.Validate, core.Translator, gradeKindTag, gradeKindText)
}
