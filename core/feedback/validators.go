package feedback

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classportal/core"
)

var (
	feedbackTypeTag  = "feedbacktype"
	feedbackTypeText = "invalid feedback type"

	feedbackStatusTag  = "feedbackstatus"
	feedbackStatusText = "invalid feedback status"
)

func init() {
	register := func(tag, text string, values []string) {
		_ = core.Validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return core.ContainsString(values, fl.Field().String())
		})
		core.RegisterCustomTranslation(core.Validate, core.Translator, tag, text)
	}
	register(feedbackTypeTag, feedbackTypeText, Types)
	register(feedbackStatusTag, feedbackStatusText, Statuses)
}

type statusInput struct {
	Status string `json:"status" validate:"required,feedbackstatus"`
}
