package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/evdms/dealer-console/internal/domain"
)

type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

func (oc *OrderClient) CreateDraft(ctx context.Context, customerID string) (string, error) {
	in := map[string]string{"customerId": customerID}
	var out struct {
		OrderID string `json:"orderId"`
	}
	if err := oc.c.do(ctx, http.MethodPost, "/v1/orders", in, &out); err != nil {
		return "", err
	}
	return out.OrderID, nil
}

func (oc *OrderClient) AddLine(ctx context.Context, orderID, model, variant, color string, quantity int) (string, error) {
	in := map[string]any{
		"modelName":   model,
		"variantName": variant,
		"colorName":   color,
		"quantity":    quantity,
	}
	var out struct {
		OrderDetailID string `json:"orderDetailId"`
	}
	path := "/v1/orders/" + url.PathEscape(orderID) + "/lines"
	if err := oc.c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return "", err
	}
	return out.OrderDetailID, nil
}

func (oc *OrderClient) UpdateLineQuantity(ctx context.Context, orderDetailID string, quantity int) error {
	in := map[string]int{"quantity": quantity}
	return oc.c.do(ctx, http.MethodPut, "/v1/order-lines/"+url.PathEscape(orderDetailID), in, nil)
}

func (oc *OrderClient) RemoveLine(ctx context.Context, orderDetailID string) error {
	return oc.c.do(ctx, http.MethodDelete, "/v1/order-lines/"+url.PathEscape(orderDetailID), nil, nil)
}

// SetPromotion applies a promotion, or clears it when promotionID is nil.
func (oc *OrderClient) SetPromotion(ctx context.Context, orderID string, promotionID *string) error {
	in := map[string]*string{"promotionId": promotionID}
	return oc.c.do(ctx, http.MethodPut, "/v1/orders/"+url.PathEscape(orderID)+"/promotion", in, nil)
}

func (oc *OrderClient) SetPaymentMethod(ctx context.Context, orderID string, method domain.PaymentMethod) error {
	in := map[string]domain.PaymentMethod{"method": method}
	return oc.c.do(ctx, http.MethodPut, "/v1/orders/"+url.PathEscape(orderID)+"/payment-method", in, nil)
}

func (oc *OrderClient) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	in := map[string]domain.OrderStatus{"status": status}
	return oc.c.do(ctx, http.MethodPut, "/v1/orders/"+url.PathEscape(orderID)+"/status", in, nil)
}

func (oc *OrderClient) GetDetail(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	var out domain.OrderDetail
	if err := oc.c.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (oc *OrderClient) GetSummary(ctx context.Context, orderID string) (*domain.OrderSummary, error) {
	var out domain.OrderSummary
	if err := oc.c.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID)+"/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
