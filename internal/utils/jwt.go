package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// RoleReservationAdmin is the only role a reservation-owner token carries.
const RoleReservationAdmin = "reservation_admin"

var (
    // ErrInvalidToken covers bad signatures, wrong issuer, wrong algorithm
    // and expired tokens.
    ErrInvalidToken = errors.New("invalid token")
    // ErrInvalidRole is returned when a well-formed token carries a role
    // that is not accepted for the requested scope.
    ErrInvalidRole = errors.New("invalid role")
)

// AccessToken represents a signed JWT along with its expiry.  The Token
// field contains the JWT string and Exp the UTC expiration time.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// StaffClaims identify a venue worker.  The ID fields hold opaque
// identifiers produced by the codec, never raw database IDs.
type StaffClaims struct {
    EmployeeID     string `json:"employee_id"`
    OrganizationID string `json:"organization_id"`
    VenueID        string `json:"venue_id"`
    Role           string `json:"role"`
    Email          string `json:"email"`
    Name           string `json:"name"`
    jwt.RegisteredClaims
}

// ReservationClaims bind a booking owner to exactly one booking.
type ReservationClaims struct {
    BookingID string `json:"booking_id"`
    UserID    string `json:"user_id"`
    Role      string `json:"role"`
    jwt.RegisteredClaims
}

// TokenIssuer signs and verifies both token scopes with one HS256 secret.
// It holds only startup configuration and is safe for concurrent use.
type TokenIssuer struct {
    secret         []byte
    issuer         string
    staffTTL       time.Duration
    reservationTTL time.Duration
    now            func() time.Time
}

// NewTokenIssuer builds a TokenIssuer.  staffTTL bounds staff sessions and
// reservationTTL bounds booking-owner sessions.
func NewTokenIssuer(secret, issuer string, staffTTL, reservationTTL time.Duration) *TokenIssuer {
    return &TokenIssuer{
        secret:         []byte(secret),
        issuer:         issuer,
        staffTTL:       staffTTL,
        reservationTTL: reservationTTL,
        now:            func() time.Time { return time.Now().UTC() },
    }
}

func (t *TokenIssuer) registered(subject string, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
    now := t.now()
    exp := now.Add(ttl)
    return jwt.RegisteredClaims{
        Issuer:    t.issuer,
        Subject:   subject,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }, exp
}

func (t *TokenIssuer) sign(claims jwt.Claims, exp time.Time) (AccessToken, error) {
    // Create a new token object specifying the signing method (HS256).
    tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := tok.SignedString(t.secret)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// IssueStaff signs a staff session token.  Registered claims in c are
// overwritten.
func (t *TokenIssuer) IssueStaff(c StaffClaims) (AccessToken, error) {
    reg, exp := t.registered(c.EmployeeID, t.staffTTL)
    c.RegisteredClaims = reg
    return t.sign(&c, exp)
}

// IssueReservation signs a reservation-owner token for one booking.
func (t *TokenIssuer) IssueReservation(bookingID, userID string) (AccessToken, error) {
    reg, exp := t.registered(userID, t.reservationTTL)
    return t.sign(&ReservationClaims{
        BookingID:        bookingID,
        UserID:           userID,
        Role:             RoleReservationAdmin,
        RegisteredClaims: reg,
    }, exp)
}

func (t *TokenIssuer) parse(raw string, claims jwt.Claims, opts ...jwt.ParserOption) error {
    opts = append(opts,
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithTimeFunc(t.now),
    )
    tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
        return t.secret, nil
    }, opts...)
    if err != nil || !tok.Valid {
        return ErrInvalidToken
    }
    return nil
}

// ParseStaff verifies a staff session token.
func (t *TokenIssuer) ParseStaff(raw string) (*StaffClaims, error) {
    var c StaffClaims
    if err := t.parse(raw, &c, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired()); err != nil {
        return nil, err
    }
    if c.EmployeeID == "" || c.Role == RoleReservationAdmin {
        return nil, ErrInvalidRole
    }
    return &c, nil
}

// ParseReservation verifies a reservation-owner token.  A valid token of
// any other role yields ErrInvalidRole.
func (t *TokenIssuer) ParseReservation(raw string) (*ReservationClaims, error) {
    var c ReservationClaims
    if err := t.parse(raw, &c, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired()); err != nil {
        return nil, err
    }
    if c.Role != RoleReservationAdmin || c.BookingID == "" {
        return nil, ErrInvalidRole
    }
    return &c, nil
}

// RefreshStaff re-signs a staff token whose signature and issuer are valid,
// ignoring its expiry, and returns the new token with the carried claims.
func (t *TokenIssuer) RefreshStaff(raw string) (AccessToken, *StaffClaims, error) {
    var c StaffClaims
    if err := t.parse(raw, &c, jwt.WithoutClaimsValidation()); err != nil {
        return AccessToken{}, nil, err
    }
    if c.Issuer != t.issuer {
        return AccessToken{}, nil, ErrInvalidToken
    }
    if c.EmployeeID == "" || c.Role == RoleReservationAdmin {
        return AccessToken{}, nil, ErrInvalidRole
    }
    tok, err := t.IssueStaff(c)
    if err != nil {
        return AccessToken{}, nil, err
    }
    return tok, &c, nil
}
