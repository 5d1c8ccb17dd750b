package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/handler"
	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/pkg/apperror"
	"github.com/fleetyard/backoffice-api/pkg/httputil"
)

type fakeService struct {
	createErr error
	created   []*model.CreateLeadRequest
	sources   []string
}

func (s *fakeService) Create(ctx context.Context, req *model.CreateLeadRequest, source string) (*model.Lead, error) {
	s.created = append(s.created, req)
	s.sources = append(s.sources, source)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &model.Lead{
		Base:        model.Base{ID: uuid.New()},
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Status:      model.LeadStatusNew,
		Source:      source,
	}, nil
}

func (s *fakeService) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	return nil, apperror.NotFound("lead")
}

func (s *fakeService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateLeadRequest, actorID uuid.UUID) (*model.Lead, error) {
	return nil, apperror.NotFound("lead")
}

func (s *fakeService) UpdateStatus(ctx context.Context, id uuid.UUID, target model.LeadStatus, actorID uuid.UUID) (*model.Lead, error) {
	return nil, apperror.NotFound("lead")
}

func (s *fakeService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	return apperror.NotFound("lead")
}

func (s *fakeService) List(ctx context.Context, filter *model.LeadFilter) ([]*model.Lead, int, error) {
	return nil, 0, nil
}

func newTestRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()

	r := gin.New()
	public := r.Group("/public")
	NewHandler(svc).RegisterPublicRoutes(public)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDemoRequestCreated(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	w := postJSON(t, r, "/public/demo-requests", gin.H{
		"company_name": "Acme Logistics",
		"contact_name": "Jane Smith",
		"email":        "jane@acme.test",
		"fleet_size":   "11-50",
		"country_code": "FR",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)

	require.Len(t, svc.sources, 1)
	assert.Equal(t, "demo_request", svc.sources[0])
}

func TestDemoRequestDuplicateEmail(t *testing.T) {
	svc := &fakeService{createErr: apperror.Conflict(apperror.CodeDuplicateEmail,
		"a lead with this email already exists")}
	r := newTestRouter(svc)

	w := postJSON(t, r, "/public/demo-requests", gin.H{
		"company_name": "Acme Logistics",
		"contact_name": "Jane Smith",
		"email":        "jane@acme.test",
		"fleet_size":   "11-50",
	})

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperror.CodeDuplicateEmail, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Message)
}

func TestDemoRequestValidation(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing email", gin.H{
			"company_name": "Acme", "contact_name": "Jane", "fleet_size": "11-50",
		}},
		{"bad fleet size", gin.H{
			"company_name": "Acme", "contact_name": "Jane",
			"email": "jane@acme.test", "fleet_size": "lots",
		}},
		{"bad country code", gin.H{
			"company_name": "Acme", "contact_name": "Jane",
			"email": "jane@acme.test", "fleet_size": "11-50", "country_code": "FRA",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/public/demo-requests", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp httputil.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, apperror.CodeValidation, resp.Error.Code)
		})
	}

	assert.Empty(t, svc.created, "invalid requests never reach the service")
}
