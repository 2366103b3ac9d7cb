// AngelaMos | 2026
// query.go

package schema

type Op string

const (
	// OpEq is exact equality.
	OpEq Op = "eq"
	// OpILike is a case-insensitive substring match; Value holds the bare
	// substring, drivers add the wildcards.
	OpILike Op = "ilike"
)

type Filter struct {
	Column string
	Op     Op
	Value  string
	// Embedded names the join alias the column belongs to. Empty means the
	// root table.
	Embedded string
}

func Eq(column, value string) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func ILike(column, value string) Filter {
	return Filter{Column: column, Op: OpILike, Value: value}
}

// Join expands a related row (or rows) into each result row under Alias,
// matched by Table.ForeignKey = root.LocalKey.
type Join struct {
	Alias      string
	Table      Entity
	Columns    []string
	LocalKey   string
	ForeignKey string
	Inner      bool
}

type Order struct {
	Column    string
	Ascending bool
}

// Query describes a select against one table. Filters are AND-ed; each
// AnyOf group is AND-ed internally and the groups are OR-ed together.
type Query struct {
	Table   Entity
	Columns []string
	Joins   []Join
	Filters []Filter
	AnyOf   [][]Filter
	Order   *Order
}

func (q Query) AllColumns() bool {
	return len(q.Columns) == 0
}

func (q Query) Where(filters ...Filter) Query {
	out := q
	out.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return out
}

func (q Query) Join(alias string) (Join, bool) {
	for _, j := range q.Joins {
		if j.Alias == alias {
			return j, true
		}
	}
	return Join{}, false
}

func newestFirst() *Order {
	return &Order{Column: ColCreatedAt, Ascending: false}
}

func oldestFirst() *Order {
	return &Order{Column: ColCreatedAt, Ascending: true}
}

func ownerJoin(localKey string) Join {
	return Join{
		Alias:      OwnerAlias,
		Table:      Users,
		Columns:    OwnerColumns,
		LocalKey:   localKey,
		ForeignKey: ColID,
	}
}

// ProjectsQuery selects every project column plus the owning user,
// newest first, narrowed by f.
func ProjectsQuery(f ProjectFilter) Query {
	return Query{
		Table:   Projects,
		Joins:   []Join{ownerJoin("owner_id")},
		Filters: f.Filters(),
		Order:   newestFirst(),
	}
}

func UsersQuery(f UserFilter) Query {
	return Query{
		Table:   Users,
		Filters: f.Filters(),
		Order:   newestFirst(),
	}
}

func UserQuery(id string) Query {
	return Query{
		Table:   Users,
		Filters: []Filter{Eq(ColID, id)},
	}
}

// MessagesThreadQuery selects the conversation between two users in both
// directions, oldest first.
func MessagesThreadQuery(userA, userB string) Query {
	return Query{
		Table: Messages,
		AnyOf: [][]Filter{
			{Eq("sender_id", userA), Eq("receiver_id", userB)},
			{Eq("sender_id", userB), Eq("receiver_id", userA)},
		},
		Order: oldestFirst(),
	}
}

// PartnershipRequestsQuery selects partnership requests made against any
// project owned by ownerID, with the project and the requesting partner
// expanded. The project join is inner so that the owner filter restricts
// the partnership rows themselves.
func PartnershipRequestsQuery(ownerID string) Query {
	return Query{
		Table: Partnerships,
		Joins: []Join{
			{
				Alias:      "projects",
				Table:      Projects,
				LocalKey:   "project_id",
				ForeignKey: ColID,
				Inner:      true,
			},
			{
				Alias:      "partner",
				Table:      Users,
				Columns:    []string{"id", "full_name", "avatar_url"},
				LocalKey:   "partner_id",
				ForeignKey: ColID,
			},
		},
		Filters: []Filter{
			{Column: "owner_id", Op: OpEq, Value: ownerID, Embedded: "projects"},
		},
		Order: newestFirst(),
	}
}

func RatingScoresQuery(ratedUserID string) Query {
	return Query{
		Table:   Ratings,
		Columns: []string{"score"},
		Filters: []Filter{Eq("rated_user_id", ratedUserID)},
	}
}
