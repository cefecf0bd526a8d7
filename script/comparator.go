package script

import (
	"github.com/Aashil0828/collections/registry"
	"github.com/Aashil0828/collections/variant"
	"github.com/pkg/errors"
	"github.com/robertkrimen/otto"
)

// comparator is a script function ordering the keys of a BTreeMap.
type comparator struct {
	host *Host
	fn   otto.Value
	this otto.Value
}

func (c *comparator) compare(a, b variant.Variant) (variant.Variant, error) {
	x, err := c.host.fromVariant(a, borrowed)
	if err != nil {
		return variant.Variant{}, err
	}
	y, err := c.host.fromVariant(b, borrowed)
	if err != nil {
		return variant.Variant{}, err
	}
	res, err := c.fn.Call(c.this, x, y)
	if err != nil {
		return variant.Variant{}, errors.Wrap(err, "script comparator")
	}
	return c.host.toVariant(res)
}

func comparatorClass() registry.Class {
	return registry.Class{
		Name: ComparatorTypeName,
		Methods: map[string]registry.Method{
			registry.CompareMethod: {Args: 2, Fn: func(
				_ *registry.Registry, this any, args []variant.Variant,
			) (variant.Variant, error) {
				c, ok := this.(*comparator)
				if !ok {
					return variant.Variant{}, errors.Errorf("receiver is %T", this)
				}
				return c.compare(args[0], args[1])
			}},
		},
	}
}
