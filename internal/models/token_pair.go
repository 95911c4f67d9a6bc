package models

// TokenPair — пара токенов, выдаваемая при аутентификации/регистрации.
//
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT с тем же jti, предъявляется только
//     для выпуска нового access-токена. При refresh пара НЕ ротируется:
//     RefreshToken в ответе пуст, клиент продолжает пользоваться старым.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
