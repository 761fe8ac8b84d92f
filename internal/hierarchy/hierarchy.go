// Package hierarchy walks the managed-by tree that links Staff to Managers,
// Managers to Owners, and Owners to the Chairman.
package hierarchy

import "giatla/backend/internal/domain"

// Directory is the lookup a resolver needs. Both store collections and plain
// slices satisfy it through Index.
type Directory interface {
	User(id string) (domain.User, bool)
}

// Index is a Directory over a slice of users.
type Index map[string]domain.User

func NewIndex(users []domain.User) Index {
	idx := make(Index, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}

func (i Index) User(id string) (domain.User, bool) {
	u, ok := i[id]
	return u, ok
}

// ResolveOwnerID returns the id of the Owner whose store userID works in. An
// Owner resolves to itself. Chairman, Customers, unknown users, broken chains
// and cycles resolve to "".
func ResolveOwnerID(dir Directory, userID string) string {
	visited := make(map[string]bool)
	current := userID
	for current != "" && !visited[current] {
		visited[current] = true
		u, ok := dir.User(current)
		if !ok {
			return ""
		}
		switch u.Role {
		case domain.RoleOwner:
			return u.ID
		case domain.RoleChairman, domain.RoleCustomer:
			return ""
		}
		current = u.ManagedBy
	}
	return ""
}

// Chain lists userID followed by each ancestor reachable through managed-by,
// stopping at a missing parent or a repeated id.
func Chain(dir Directory, userID string) []domain.User {
	visited := make(map[string]bool)
	var out []domain.User
	for current := userID; current != "" && !visited[current]; {
		visited[current] = true
		u, ok := dir.User(current)
		if !ok {
			break
		}
		out = append(out, u)
		current = u.ManagedBy
	}
	return out
}

// Subordinates returns the ids of every user below rootID, at any depth.
// rootID itself is not included.
func Subordinates(users []domain.User, rootID string) map[string]bool {
	children := make(map[string][]string)
	for _, u := range users {
		if u.ManagedBy != "" {
			children[u.ManagedBy] = append(children[u.ManagedBy], u.ID)
		}
	}
	out := make(map[string]bool)
	visited := map[string]bool{rootID: true}
	var descend func(id string)
	descend = func(id string) {
		for _, child := range children[id] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out[child] = true
			descend(child)
		}
	}
	descend(rootID)
	return out
}

// Manages reports whether managerID sits above userID in the tree.
func Manages(dir Directory, managerID string, userID string) bool {
	for _, u := range Chain(dir, userID) {
		if u.ID != userID && u.ID == managerID {
			return true
		}
	}
	return false
}
