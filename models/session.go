package models

// Session, authenticate olmuş kullanıcının token çifti + user kaydıdır.
//
// Lifecycle:
// - Login başarısında oluşturulur ve local storage'a persist edilir
// - Explicit logout'ta, "token expired" sinyalinde veya storage başka bir
//   process tarafından temizlendiğinde (cross-tab logout) silinir
//
// Invariant: AccessToken doluysa tüm API çağrıları authorization header taşır;
// boşsa korumalı view'lar login'e yönlendirilir.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         User   `json:"user"`
}

// Authenticated, session'ın korumalı view render etmeye yeterli olup
// olmadığını söyler: hem token hem user kaydı gerekir — yarım state kabul edilmez.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != "" && s.User.ID != ""
}
