package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/evdms/dealer-console/internal/domain"
)

type CustomerClient struct{ c *Client }

func NewCustomerClient(c *Client) *CustomerClient { return &CustomerClient{c: c} }

func (cc *CustomerClient) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var out domain.Customer
	path := "/v1/customers/lookup?phone=" + url.QueryEscape(phone)
	if err := cc.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (cc *CustomerClient) Create(ctx context.Context, name, phone, email string) (string, error) {
	in := map[string]string{"name": name, "phone": phone, "email": email}
	var out struct {
		CustomerID string `json:"customerId"`
	}
	if err := cc.c.do(ctx, http.MethodPost, "/v1/customers", in, &out); err != nil {
		return "", err
	}
	return out.CustomerID, nil
}

func (cc *CustomerClient) Update(ctx context.Context, id, name, phone, email string) (*domain.Customer, error) {
	in := map[string]string{"name": name, "phone": phone, "email": email}
	var out domain.Customer
	if err := cc.c.do(ctx, http.MethodPut, "/v1/customers/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
