package plugin

import (
	"github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/framework/param"
)

// BaseController implements the registry-backed parts of Controller
type BaseController struct {
	params *param.Registry
}

// NewBaseController creates a controller with an empty registry
func NewBaseController() *BaseController {
	return &BaseController{params: param.NewRegistry()}
}

// GetParameters implements the Controller interface
func (b *BaseController) GetParameters() *param.Registry {
	return b.params
}

// FormatValue implements the Controller interface
func (b *BaseController) FormatValue(id uint32, normalized float64) (string, error) {
	p := b.params.Get(id)
	if p == nil {
		return "", errors.NotFoundf("parameter %d", id)
	}
	return p.FormatValue(normalized), nil
}

// ParseValue implements the Controller interface
func (b *BaseController) ParseValue(id uint32, str string) (float64, error) {
	p := b.params.Get(id)
	if p == nil {
		return 0, errors.NotFoundf("parameter %d", id)
	}
	v, err := p.ParseValue(str)
	return v, errors.Trace(err)
}
