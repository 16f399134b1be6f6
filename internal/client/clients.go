package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hongminglow/erp-portal/internal/http/respond"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
	"github.com/hongminglow/erp-portal/internal/validate"
)

// ClientService calls the /clients endpoints.
type ClientService struct {
	c *Client
}

func NewClientService(c *Client) *ClientService {
	return &ClientService{c: c}
}

// Search returns one page of clients. Inconsistent pagination metadata is reported as malformed.
func (s *ClientService) Search(ctx context.Context, req dto.ClientSearchRequest) (respond.Page[models.Client], error) {
	req.Normalize(dto.ClientSortColumns...)
	page, err := getData[respond.Page[models.Client]](ctx, s.c, http.MethodPost, "/clients/search", req)
	if err != nil {
		return respond.Page[models.Client]{}, err
	}
	if !page.Consistent() {
		return respond.Page[models.Client]{}, fmt.Errorf("%w: inconsistent pagination", ErrMalformedEnvelope)
	}
	return page, nil
}

func (s *ClientService) Create(ctx context.Context, req dto.CreateClientRequest) (models.Client, error) {
	if errs := validate.ClientRules.Validate(validate.ClientValues(req)); errs != nil {
		return models.Client{}, errs
	}
	return getData[models.Client](ctx, s.c, http.MethodPost, "/clients", req)
}

func (s *ClientService) Delete(ctx context.Context, id int64) error {
	return s.c.call(ctx, http.MethodDelete, fmt.Sprintf("/clients/%d", id), nil, "", nil)
}
