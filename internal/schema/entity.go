// AngelaMos | 2026
// entity.go

package schema

// Entity names a backend table.
type Entity string

const (
	Users        Entity = "users"
	Projects     Entity = "projects"
	Messages     Entity = "messages"
	Partnerships Entity = "partnerships"
	Ratings      Entity = "ratings"
)

func (e Entity) Table() string {
	return string(e)
}

func (e Entity) Valid() bool {
	switch e {
	case Users, Projects, Messages, Partnerships, Ratings:
		return true
	}
	return false
}

const (
	ColID        = "id"
	ColCreatedAt = "created_at"
	ColStatus    = "status"
)

// OwnerColumns is the owning User's projection embedded into project rows.
var OwnerColumns = []string{"id", "full_name", "email", "avatar_url"}

// OwnerAlias is the key the embedded owner appears under in returned rows.
const OwnerAlias = "users"
