package domain

// Role 用户角色，由外部身份提供方签发
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// Principal 当前请求的已认证用户
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin 是否为管理员
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// NavLink 导航链接
type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Navigation 与会话相关的导航信息
type Navigation struct {
	Principal *Principal `json:"principal,omitempty"`
	Links     []NavLink  `json:"links"`
	Account   NavLink    `json:"account"`
	CartCount int        `json:"cart_count"`
}
