package storefront

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/pkg/kit"
)

const (
	DeliveryMinutes = 30

	phoneNoise = "+()- "

	msgOrderPlaced = "Order placed. We will assemble it in 15 minutes and text you the courier's contacts."
)

var phonePattern = regexp.MustCompile(`^[0-9]{11}$`)

type checkoutReq struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Coupon  string `json:"coupon"`
}

type checkoutResp struct {
	ID string `json:"id"`
	cart.Quote
	Items           []cart.LineItem `json:"items"`
	DeliveryMinutes int             `json:"delivery_minutes"`
	Message         string          `json:"message"`
}

// validate returns a field → reason map, empty when the form is acceptable.
func (req *checkoutReq) validate() map[string]string {
	problems := map[string]string{}

	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" {
		problems["address"] = "required"
	}

	req.Phone = normalizePhone(req.Phone)
	if !phonePattern.MatchString(req.Phone) {
		problems["phone"] = "must contain 11 digits"
	}

	req.Email = strings.TrimSpace(req.Email)
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		problems["email"] = "invalid"
	}

	return problems
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(phoneNoise, r) {
			return -1
		}
		return r
	}, phone)
}

// checkout validates the delivery form, prices the cart and empties it.
// The order itself is only logged.
func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid checkout form", problems)
		return
	}

	sess := s.open(w, r)
	if sess.cart.Len() == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
		return
	}

	items := sess.cart.Items()
	resp := checkoutResp{
		ID:              "o_" + s.orderID(),
		Quote:           s.Coupons.Quote(items, req.Coupon),
		Items:           items,
		DeliveryMinutes: DeliveryMinutes,
		Message:         msgOrderPlaced,
	}

	sess.cart.Clear()

	s.logger().Info("order placed",
		zap.String("order_id", resp.ID),
		zap.Int("lines", len(items)),
		zap.Stringer("total", resp.Total),
		zap.Bool("coupon_applied", resp.CouponApplied),
	)

	kit.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) orderID() string {
	if s.newOrderID != nil {
		return s.newOrderID()
	}
	return uuid.NewString()
}
