package models

// User, oturum açmış restoran yöneticisini temsil eder.
// Backend'in döndürdüğü user objesinin client'ta kullanılan alt kümesi.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
}

// LoginRequest, giriş formundan gelen veri.
// Validation tag'leri client tarafında, network çağrısından önce kontrol edilir.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Validate, LoginRequest'i client tarafında doğrular.
func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}
