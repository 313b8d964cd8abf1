package token

import (
	"context"
	"errors"
	"strconv"
	"time"

	"app/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// token_typeクレームの値
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// 署名不正・期限切れ・種別違いをまとめて401相当として扱う
var ErrInvalidToken = errors.New("invalid token")

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 発行したトークンのペア
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int // 秒
	RefreshExpiresIn int // 秒
}

// ServiceはユーザーIDに紐づくaccess/refreshトークンを発行・検証する。
// refresh tokenはステートレスで、失効分だけブラックリストで管理する
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    repository.RevokedTokenRepository
	clock      Clock
}

// DI
func NewService(
	secret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	revoked repository.RevokedTokenRepository,
	clock Clock,
) *Service {
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		clock:      clock,
	}
}

// Issueはaccess/refreshの両方を発行する
func (s *Service) Issue(ctx context.Context, userID int64) (Pair, error) {
	access, err := s.sign(userID, KindAccess, s.accessTTL)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := s.sign(userID, KindRefresh, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  int(s.accessTTL.Seconds()),
		RefreshExpiresIn: int(s.refreshTTL.Seconds()),
	}, nil
}

// ValidateAccessはaccess tokenを検証してユーザーIDを返す
func (s *Service) ValidateAccess(ctx context.Context, raw string) (int64, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return 0, ErrInvalidToken
	}

	//refresh tokenでのリソースアクセスは認めない
	if kind, _ := claims["token_type"].(string); kind != KindAccess {
		return 0, ErrInvalidToken
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

// Refreshはrefresh tokenを検証して新しいaccess tokenを発行する。
// ローテーションはしない（refresh tokenは期限までそのまま使える）
func (s *Service) Refresh(ctx context.Context, raw string) (string, int, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", 0, ErrInvalidToken
	}

	if kind, _ := claims["token_type"].(string); kind != KindRefresh {
		return "", 0, ErrInvalidToken
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return "", 0, ErrInvalidToken
	}

	//ログアウトで失効済みなら拒否
	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, err := s.revoked.IsRevoked(ctx, jti)
		if err != nil {
			return "", 0, err
		}
		if revoked {
			return "", 0, ErrInvalidToken
		}
	}

	access, err := s.sign(userID, KindAccess, s.accessTTL)
	if err != nil {
		return "", 0, err
	}

	return access, int(s.accessTTL.Seconds()), nil
}

// Revokeはrefresh tokenのjtiをブラックリストに入れる（冪等・ベストエフォート）
func (s *Service) Revoke(ctx context.Context, raw string) error {
	claims, err := s.parse(raw)
	if err != nil {
		//不正・期限切れのトークンは失効させるまでもない
		return nil
	}

	if kind, _ := claims["token_type"].(string); kind != KindRefresh {
		return nil
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	//ついでに期限切れの行を掃除（失敗しても続行）
	_, _ = s.revoked.DeleteExpired(ctx, s.clock.Now())

	return s.revoked.Revoke(ctx, jti, exp.Time)
}

// 署名付きJWTを作る
func (s *Service) sign(userID int64, kind string, ttl time.Duration) (string, error) {
	now := s.clock.Now()

	claims := jwt.MapClaims{
		"sub":        strconv.FormatInt(userID, 10),
		"token_type": kind,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// JWTをパースして検証する（署名・exp）
func (s *Service) parse(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || tok == nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// subをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}
