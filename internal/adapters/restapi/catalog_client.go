package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/evdms/dealer-console/internal/domain"
)

type CatalogClient struct{ c *Client }

func NewCatalogClient(c *Client) *CatalogClient { return &CatalogClient{c: c} }

// List returns every variant with per-color dealer price and stock. The
// reported stock already reflects reservations held by persisted order
// lines across the whole network.
func (cc *CatalogClient) List(ctx context.Context) (domain.Catalog, error) {
	var out domain.Catalog
	if err := cc.c.do(ctx, http.MethodGet, "/v1/catalog", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type PromotionClient struct{ c *Client }

func NewPromotionClient(c *Client) *PromotionClient { return &PromotionClient{c: c} }

func (pc *PromotionClient) List(ctx context.Context, dealerID string) ([]domain.Promotion, error) {
	var out []domain.Promotion
	path := "/v1/promotions?dealerId=" + url.QueryEscape(dealerID)
	if err := pc.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
