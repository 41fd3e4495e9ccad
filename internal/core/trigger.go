package core

import (
	"github.com/shopspring/decimal"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
)

// triggerSatisfied reports whether the observed price allows the order to
// execute. The stop condition triggers observation of the instrument; the
// limit condition bounds the acceptable execution price once triggered.
func triggerSatisfied(o *domain.Order, price decimal.Decimal) bool {
	switch o.Type {
	case domain.Market:
		return true
	case domain.Limit:
		if o.Side == domain.Buy {
			return price.LessThanOrEqual(o.LimitPrice)
		}
		return price.GreaterThanOrEqual(o.LimitPrice)
	case domain.StopLoss:
		if o.Side == domain.Sell {
			return price.LessThanOrEqual(o.StopPrice)
		}
		return price.GreaterThanOrEqual(o.StopPrice)
	case domain.StopLimit:
		if o.Side == domain.Sell {
			return price.LessThanOrEqual(o.StopPrice) && price.GreaterThanOrEqual(o.LimitPrice)
		}
		return price.GreaterThanOrEqual(o.StopPrice) && price.LessThanOrEqual(o.LimitPrice)
	}
	return false
}
