package server

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	app "photozone/src/app"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the facet tags used on upload
// metadata and the rule that a type must be built in the chosen complex.
func registerValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		tags := map[string]func(string) bool{
			"category":    app.ValidCategory,
			"complex":     app.ValidComplex,
			"apttype":     app.ValidType,
			"space":       app.ValidSpace,
			"orientation": app.ValidOrientation,
			"floor":       app.ValidFloorLevel,
		}
		for tag, check := range tags {
			check := check
			if err = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return check(fl.Field().String())
			}); err != nil {
				return
			}
		}
		v.RegisterStructValidation(validateUploadMeta, app.UploadMeta{})
	})
	return err
}

func validateUploadMeta(sl validator.StructLevel) {
	meta := sl.Current().Interface().(app.UploadMeta)
	if meta.Complex == "" || meta.Type == "" {
		return
	}
	if !app.TypeBelongs(meta.Complex, meta.Type) {
		sl.ReportError(meta.Type, "Type", "type", "complextype", string(meta.Complex))
	}
}
