package orgs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "rzp_secret"

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fakeGateway struct {
	last OrderRequest
	err  error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Status: "created"}, nil
}

func newService(t *testing.T) (*Service, *db.DB, *fakeGateway) {
	t.Helper()
	database := dbtest.Open(t)
	gw := &fakeGateway{}
	svc := NewService(database, auth.NewTokens("jwt", time.Hour), gw, Config{KeyID: "rzp_key", KeySecret: secret})
	svc.now = func() time.Time { return now }
	return svc, database, gw
}

func register(t *testing.T, svc *Service) string {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterRequest{
		OrganizationName: "Acme Corp",
		Email:            "Billing@Acme.io",
		Password:         "secret1",
	})
	require.NoError(t, err)
	return res.Organization.ID
}

func TestRegister(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"missing", RegisterRequest{Email: "a@b.io", Password: "secret1"}, "Organization name, email, and password are required"},
		{"bad email", RegisterRequest{OrganizationName: "A", Email: "nope", Password: "secret1"}, "Invalid email format"},
		{"short password", RegisterRequest{OrganizationName: "A", Email: "a@b.io", Password: "123"}, "Password must be at least 6 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.HTTPStatus(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}

	res, err := svc.Register(ctx, RegisterRequest{OrganizationName: "Acme Corp", Email: "Billing@Acme.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Organization registered successfully", res.Message)
	assert.Equal(t, "billing@acme.io", res.Organization.Email)
	assert.False(t, res.Organization.HasActivePlan)

	_, err = svc.Register(ctx, RegisterRequest{OrganizationName: "Other", Email: "billing@acme.io", Password: "secret1"})
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
}

func TestLoginRequiresPlan(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	register(t, svc)

	_, err := svc.Login(ctx, "billing@acme.io", "wrong-pass")
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	_, err = svc.Login(ctx, "nobody@acme.io", "secret1")
	assert.Equal(t, 401, apperrors.HTTPStatus(err))

	res, err := svc.Login(ctx, "billing@acme.io", "secret1")
	require.NoError(t, err)
	assert.True(t, res.RequiresPlan)
	assert.Equal(t, PlanNotPurchased, res.PlanStatus)
	assert.Equal(t, "Please purchase a plan to continue.", res.Message)
	assert.Empty(t, res.Token)
}

func TestPurchaseFlow(t *testing.T) {
	svc, database, gw := newService(t)
	ctx := context.Background()
	orgID := register(t, svc)

	_, err := svc.CreateOrder(ctx, CreateOrderRequest{OrganizationID: orgID, PlanType: "weekly", Amount: 10})
	assert.Equal(t, "Invalid plan type. Must be monthly, quarterly, or yearly", err.Error())
	_, err = svc.CreateOrder(ctx, CreateOrderRequest{OrganizationID: "missing", PlanType: "monthly", Amount: 10})
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
	_, err = svc.CreateOrder(ctx, CreateOrderRequest{OrganizationID: orgID, PlanType: "monthly"})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	order, err := svc.CreateOrder(ctx, CreateOrderRequest{OrganizationID: orgID, PlanType: "quarterly", Amount: 499.99})
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.OrderID)
	assert.Equal(t, int64(49999), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rzp_key", order.KeyID)
	assert.Equal(t, "org_"+orgID[:8]+"_1717236000", gw.last.Receipt)
	assert.Equal(t, "quarterly", gw.last.Notes["planType"])

	_, err = svc.VerifyPayment(ctx, VerifyPaymentRequest{OrderID: "order_1"})
	assert.Equal(t, "All payment details are required", err.Error())

	_, err = svc.VerifyPayment(ctx, VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: "deadbeef", OrganizationID: orgID,
	})
	assert.Equal(t, "Invalid payment signature", err.Error())
	var status string
	require.NoError(t, database.QueryRow(ctx, "SELECT status FROM payments WHERE gateway_order_id = 'order_1'").Scan(&status))
	assert.Equal(t, "failed", status)

	_, err = svc.VerifyPayment(ctx, VerifyPaymentRequest{
		OrderID: "order_9", PaymentID: "pay_1", Signature: Signature(secret, "order_9", "pay_1"), OrganizationID: orgID,
	})
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	res, err := svc.VerifyPayment(ctx, VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: Signature(secret, "order_1", "pay_1"), OrganizationID: orgID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Payment verified successfully. Plan activated!", res.Message)
	assert.True(t, res.Organization.HasActivePlan)
	require.NotNil(t, res.Organization.PlanEndDate)
	assert.True(t, now.AddDate(0, 3, 0).Equal(*res.Organization.PlanEndDate))

	require.NoError(t, database.QueryRow(ctx, "SELECT status FROM payments WHERE gateway_order_id = 'order_1'").Scan(&status))
	assert.Equal(t, "paid", status)

	// replaying the same checkout neither extends the plan nor flips the payment
	svc.now = func() time.Time { return now.AddDate(0, 1, 0) }
	_, err = svc.VerifyPayment(ctx, VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: Signature(secret, "order_1", "pay_1"), OrganizationID: orgID,
	})
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
	_, err = svc.VerifyPayment(ctx, VerifyPaymentRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: "deadbeef", OrganizationID: orgID,
	})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	require.NoError(t, database.QueryRow(ctx, "SELECT status FROM payments WHERE gateway_order_id = 'order_1'").Scan(&status))
	assert.Equal(t, "paid", status)
	var end time.Time
	require.NoError(t, database.QueryRow(ctx, "SELECT plan_end_date FROM organizations WHERE id = $1", orgID).Scan(&end))
	assert.True(t, now.AddDate(0, 3, 0).Equal(end.UTC()), "plan still ends three months after the first verification")
	svc.now = func() time.Time { return now }

	login, err := svc.Login(ctx, "billing@acme.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, PlanActive, login.PlanStatus)
	assert.Equal(t, "Login successful", login.Message)
	claims, err := svc.tokens.Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeOrganization, claims.Type)
	assert.Equal(t, orgID, claims.OrgID)
	assert.Equal(t, "Acme Corp", claims.OrganizationName)

	me, err := svc.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, orgID, me.ID)
	_, err = svc.Me(ctx, &auth.Claims{Email: "ann@room.io"})
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	// four months later the plan has run out
	svc.now = func() time.Time { return now.AddDate(0, 4, 0) }
	login, err = svc.Login(ctx, "billing@acme.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, PlanExpired, login.PlanStatus)
	assert.Equal(t, "Plan expired. Please purchase again.", login.Message)
	assert.Empty(t, login.Token)

	var active bool
	require.NoError(t, database.QueryRow(ctx, "SELECT has_active_plan FROM organizations WHERE id = $1", orgID).Scan(&active))
	assert.False(t, active)
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	svc, _, gw := newService(t)
	orgID := register(t, svc)
	gw.err = errors.New("connection refused")

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{OrganizationID: orgID, PlanType: "monthly", Amount: 10})
	assert.Equal(t, 502, apperrors.HTTPStatus(err))
}

func TestHTTPGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "sec" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"description":"Authentication failed"}}`))
			return
		}
		assert.Equal(t, "/orders", r.URL.Path)
		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(Order{ID: "order_xyz", Amount: req.Amount, Currency: req.Currency, Status: "created"})
	}))
	defer srv.Close()

	ctx := context.Background()
	order, err := NewHTTPGateway(srv.URL+"/", "key", "sec").CreateOrder(ctx, OrderRequest{Amount: 100, Currency: "INR", Receipt: "r"})
	require.NoError(t, err)
	assert.Equal(t, "order_xyz", order.ID)
	assert.Equal(t, int64(100), order.Amount)

	_, err = NewHTTPGateway(srv.URL, "key", "bad").CreateOrder(ctx, OrderRequest{Amount: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authentication failed")

	_, err = NewHTTPGateway(srv.URL, "", "").CreateOrder(ctx, OrderRequest{Amount: 100})
	assert.Error(t, err)
}

func TestSignature(t *testing.T) {
	sig := Signature(secret, "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, ValidSignature(secret, "order_1", "pay_1", sig))
	assert.False(t, ValidSignature(secret, "order_1", "pay_2", sig))
	assert.False(t, ValidSignature("other", "order_1", "pay_1", sig))
}
