package main

import (
	"time"

	"tradedesk/auth"
	"tradedesk/negotiation"
	"tradedesk/offer"
	"tradedesk/order"
	"tradedesk/stats"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u auth.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        userResponse `json:"user"`
}

type createOfferRequest struct {
	ProductName     string   `json:"product_name" validate:"required"`
	ProductCategory string   `json:"product_category" validate:"required"`
	SKU             *string  `json:"sku"`
	Description     *string  `json:"description"`
	Quantity        *int     `json:"quantity" validate:"required,gte=0"`
	UnitOfMeasure   string   `json:"unit_of_measure" validate:"required"`
	UnitPrice       *float64 `json:"unit_price" validate:"required,gte=0"`
	Currency        string   `json:"currency" validate:"required"`
	Location        string   `json:"location" validate:"required"`
	Active          *bool    `json:"active"`
}

func (req createOfferRequest) params() offer.CreateParams {
	return offer.CreateParams{
		ProductName:     req.ProductName,
		ProductCategory: req.ProductCategory,
		SKU:             req.SKU,
		Description:     req.Description,
		Quantity:        *req.Quantity,
		UnitOfMeasure:   req.UnitOfMeasure,
		UnitPrice:       *req.UnitPrice,
		Currency:        req.Currency,
		Location:        req.Location,
		Active:          req.Active,
	}
}

type updateOfferRequest struct {
	ProductName     *string  `json:"product_name" validate:"omitempty,min=1"`
	ProductCategory *string  `json:"product_category" validate:"omitempty,min=1"`
	SKU             *string  `json:"sku"`
	Description     *string  `json:"description"`
	Quantity        *int     `json:"quantity" validate:"omitempty,gte=0"`
	UnitOfMeasure   *string  `json:"unit_of_measure" validate:"omitempty,min=1"`
	UnitPrice       *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Currency        *string  `json:"currency" validate:"omitempty,min=1"`
	Location        *string  `json:"location" validate:"omitempty,min=1"`
	Active          *bool    `json:"active"`
}

func (req updateOfferRequest) patch() offer.Patch {
	return offer.Patch{
		ProductName:     req.ProductName,
		ProductCategory: req.ProductCategory,
		SKU:             req.SKU,
		Description:     req.Description,
		Quantity:        req.Quantity,
		UnitOfMeasure:   req.UnitOfMeasure,
		UnitPrice:       req.UnitPrice,
		Currency:        req.Currency,
		Location:        req.Location,
		Active:          req.Active,
	}
}

type offerResponse struct {
	ID              string    `json:"id"`
	ProducerID      string    `json:"producer_id"`
	ProductName     string    `json:"product_name"`
	ProductCategory string    `json:"product_category"`
	SKU             *string   `json:"sku"`
	Description     *string   `json:"description"`
	Quantity        int       `json:"quantity"`
	UnitOfMeasure   string    `json:"unit_of_measure"`
	UnitPrice       float64   `json:"unit_price"`
	Currency        string    `json:"currency"`
	Location        string    `json:"location"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toOfferResponse(o offer.Offer) offerResponse {
	return offerResponse{
		ID:              o.ID,
		ProducerID:      o.ProducerID,
		ProductName:     o.ProductName,
		ProductCategory: o.ProductCategory,
		SKU:             o.SKU,
		Description:     o.Description,
		Quantity:        o.Quantity,
		UnitOfMeasure:   o.UnitOfMeasure,
		UnitPrice:       o.UnitPrice,
		Currency:        o.Currency,
		Location:        o.Location,
		Active:          o.Active,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOfferResponses(list []offer.Offer) []offerResponse {
	out := make([]offerResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOfferResponse(o))
	}
	return out
}

type placeOrderRequest struct {
	OfferID  string `json:"offer_id" validate:"required"`
	Quantity int    `json:"quantity"`
}

type orderResponse struct {
	ID                string       `json:"id"`
	BuyerID           string       `json:"buyer_id"`
	OfferID           string       `json:"offer_id"`
	Quantity          int          `json:"quantity"`
	UnitPriceSnapshot float64      `json:"unit_price_snapshot"`
	Status            order.Status `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
}

func toOrderResponse(o order.Order) orderResponse {
	return orderResponse{
		ID:                o.ID,
		BuyerID:           o.BuyerID,
		OfferID:           o.OfferID,
		Quantity:          o.Quantity,
		UnitPriceSnapshot: o.UnitPriceSnapshot,
		Status:            o.Status,
		CreatedAt:         o.CreatedAt,
	}
}

type startNegotiationRequest struct {
	OfferID       string   `json:"offer_id" validate:"required"`
	ProposedPrice *float64 `json:"proposed_price"`
	Note          *string  `json:"message"`
}

type postMessageRequest struct {
	ProposedPrice *float64 `json:"proposed_price"`
	Note          *string  `json:"message"`
	StatusUpdate  *string  `json:"status_update"`
}

func (req postMessageRequest) params() negotiation.PostParams {
	params := negotiation.PostParams{ProposedPrice: req.ProposedPrice, Note: req.Note}
	if req.StatusUpdate != nil {
		st := negotiation.Status(*req.StatusUpdate)
		params.StatusUpdate = &st
	}
	return params
}

type messageResponse struct {
	ID            string              `json:"id"`
	NegotiationID string              `json:"negotiation_id"`
	Seq           int64               `json:"seq"`
	SenderID      string              `json:"sender_id"`
	ProposedPrice *float64            `json:"proposed_price"`
	Note          *string             `json:"message"`
	StatusUpdate  *negotiation.Status `json:"status_update"`
	CreatedAt     time.Time           `json:"created_at"`
}

type negotiationResponse struct {
	ID          string             `json:"id"`
	OfferID     string             `json:"offer_id"`
	BuyerID     string             `json:"buyer_id"`
	ProducerID  string             `json:"producer_id"`
	Status      negotiation.Status `json:"status"`
	AgreedPrice *float64           `json:"agreed_price"`
	CreatedAt   time.Time          `json:"created_at"`
	Messages    []messageResponse  `json:"messages"`
}

func toNegotiationResponse(n negotiation.Negotiation) negotiationResponse {
	msgs := make([]messageResponse, 0, len(n.Messages))
	for _, m := range n.Messages {
		msgs = append(msgs, messageResponse{
			ID:            m.ID,
			NegotiationID: m.NegotiationID,
			Seq:           m.Seq,
			SenderID:      m.SenderID,
			ProposedPrice: m.ProposedPrice,
			Note:          m.Note,
			StatusUpdate:  m.StatusUpdate,
			CreatedAt:     m.CreatedAt,
		})
	}
	return negotiationResponse{
		ID:          n.ID,
		OfferID:     n.OfferID,
		BuyerID:     n.BuyerID,
		ProducerID:  n.ProducerID,
		Status:      n.Status,
		AgreedPrice: n.AgreedPrice,
		CreatedAt:   n.CreatedAt,
		Messages:    msgs,
	}
}

type statsResponse struct {
	ActiveOffers int64 `json:"active_offers"`
	Producers    int64 `json:"producers"`
	Buyers       int64 `json:"buyers"`
}

func toStatsResponse(o stats.Overview) statsResponse {
	return statsResponse{ActiveOffers: o.ActiveOffers, Producers: o.Producers, Buyers: o.Buyers}
}
