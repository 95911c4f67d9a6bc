package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/oauth2"
	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"
	"github.com/pribylovaa/go-identity-service/internal/queue"
	"github.com/pribylovaa/go-identity-service/internal/storage"
	"github.com/pribylovaa/go-identity-service/internal/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// SignUp регистрирует парольную учётку и возвращает созданного
// пользователя. Токены не выпускаются: сессия (и её refresh-запись)
// появляется только при входе.
//
// Конфликт email проверяется среди ПАРОЛЬНЫХ учёток: федеративная
// учётка с тем же email регистрацию не блокирует — пространства поиска
// не пересекаются.
//
// Событие верификации отправляется в очередь best-effort: отказ брокера
// не откатывает регистрацию, учётка останется в статусе registered до
// следующей попытки верификации.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	const op = "service.auth.SignUp"

	log := logctx.From(ctx)

	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%s: password too short: %w", op, ErrInvalidArgument)
	}

	switch _, err := s.storage.UserByEmail(ctx, email); {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleUser,
		Status:       models.StatusRegistered,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Гонка двух регистраций: пре-чек прошёл у обеих, вставка
			// второй упала на уникальности.
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user_registered", slog.String("user_id", user.ID.String()))

	s.sendVerifyUserEvent(ctx, user.ID)

	return user, nil
}

// SignIn выполняет вход по паролю.
//
// «Email не найден» и «пароль не совпал» различимы в таксономии ошибок
// (ErrUserNotFound и ErrInvalidCredentials); склейка ради защиты от
// перебора — решение внешнего слоя, не этого.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.auth.SignIn"

	log := logctx.From(ctx)

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := s.storage.UpdateLoggedInAt(ctx, user.ID); err != nil {
		// Не фатально: момент входа — диагностическое поле.
		log.Warn("logged_in_at_update_failed",
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user_signed_in", slog.String("user_id", user.ID.String()))

	return pair, nil
}

// OAuth2RedirectURL возвращает URL страницы согласия провайдера.
func (s *Service) OAuth2RedirectURL(ctx context.Context, providerName, state string) (string, error) {
	const op = "service.auth.OAuth2RedirectURL"

	provider, ok := models.ParseProvider(providerName)
	if !ok {
		return "", fmt.Errorf("%s: %q: %w", op, providerName, ErrUnknownProvider)
	}

	url, err := s.oauth.RedirectURL(provider, state)
	if err != nil {
		if errors.Is(err, oauth2.ErrUnknownProvider) {
			return "", fmt.Errorf("%s: %w", op, ErrUnknownProvider)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

// OAuth2SignIn завершает authorization code flow: обменивает код на
// профиль, находит или создаёт федеративную учётку и выпускает пару.
//
// Федеративная учётка создаётся сразу в статусе verified: email
// подтверждён провайдером.
func (s *Service) OAuth2SignIn(ctx context.Context, providerName, code string) (*models.TokenPair, error) {
	const op = "service.auth.OAuth2SignIn"

	log := logctx.From(ctx)

	provider, ok := models.ParseProvider(providerName)
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, providerName, ErrUnknownProvider)
	}

	info, err := s.oauth.UserInfoByCode(ctx, provider, code)
	if err != nil {
		switch {
		case errors.Is(err, oauth2.ErrUnknownProvider):
			return nil, fmt.Errorf("%s: %w", op, ErrUnknownProvider)
		case errors.Is(err, oauth2.ErrExchangeFailed):
			return nil, fmt.Errorf("%s: %w", op, ErrOAuthExchange)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByProvider(ctx, provider, info.Subject)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		user = &models.User{
			ID:           uuid.New(),
			Email:        info.Email,
			Name:         info.Name,
			Role:         models.RoleUser,
			Status:       models.StatusVerified,
			AuthID:       info.Subject,
			AuthProvider: provider,
		}

		if err := s.storage.SaveUser(ctx, user); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
			}

			return nil, fmt.Errorf("%s: %w", op, err)
		}

		log.Info("federated_user_registered",
			slog.String("user_id", user.ID.String()),
			slog.String("provider", string(provider)),
		)

		s.sendVerifyUserEvent(ctx, user.ID)
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateLoggedInAt(ctx, user.ID); err != nil {
		log.Warn("logged_in_at_update_failed",
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// SignOut отзывает сессию: удаляет запись refresh-токена с id jti.
//
// jti берётся из ПРОВЕРЕННЫХ access-claims (валидацию делает транспортный
// слой). Операция идемпотентна — повторный выход успешен.
func (s *Service) SignOut(ctx context.Context, userID, jti uuid.UUID) error {
	const op = "service.auth.SignOut"

	if err := s.storage.DeleteRefreshToken(ctx, jti); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("user_signed_out",
		slog.String("user_id", userID.String()),
	)

	return nil
}

// Refresh выпускает новый access-токен по действующей сессии.
//
// Предусловие: refresh-claims уже проверены транспортным слоем (тип и
// подпись). Ротации нет: jti переиспользуется, запись refresh-токена не
// трогается, в ответе заполнен только access; роль берётся из claims на
// момент выпуска исходной пары. Отозванная сессия (записи нет) — 401.
func (s *Service) Refresh(ctx context.Context, jti, userID uuid.UUID, role models.Role) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	if _, err := s.storage.RefreshTokenByID(ctx, jti); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: revoked: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, err := s.tokens.Generate(jti, userID, token.AccessToken, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{AccessToken: access}, nil
}

// sendVerifyUserEvent отправляет событие верификации. Best-effort:
// ошибка логируется и не прерывает вызывающую операцию.
func (s *Service) sendVerifyUserEvent(ctx context.Context, userID uuid.UUID) {
	const op = "service.auth.sendVerifyUserEvent"

	if s.producer == nil {
		return
	}

	log := logctx.From(ctx)

	env, err := queue.NewEnvelope(queue.EventTypeUser, queue.UserEventData{
		ID:       userID.String(),
		Verified: true,
	})
	if err != nil {
		log.Error("verify_event_build_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return
	}

	if err := s.producer.Send(ctx, jobKindUserEvents, env); err != nil {
		log.Error("verify_event_send_failed",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.String("err", err.Error()),
		)
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("malformed email: %w", ErrInvalidArgument)
	}

	return nil
}
