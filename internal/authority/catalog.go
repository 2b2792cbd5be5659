package authority

import (
	"context"
	"net/http"

	"dealerhub/internal/catalog"
)

// CatalogClient implements catalog.API for the read-only reference data
// consumed by forms and filters.
type CatalogClient struct {
	c *client
}

func (cc *CatalogClient) Vehicles(ctx context.Context, token string) ([]catalog.Vehicle, error) {
	var out []catalog.Vehicle
	if err := cc.c.do(ctx, http.MethodGet, "/Vehicle", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cc *CatalogClient) Dealers(ctx context.Context, token string) ([]catalog.Dealer, error) {
	var out []catalog.Dealer
	if err := cc.c.do(ctx, http.MethodGet, "/Dealer", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
