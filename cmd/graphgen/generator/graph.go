package generator

import (
	"io"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
)

const userPrefix = "user_"

// SocialGraph generates an undirected friendship graph and writes it as
// "user<TAB>friend,friend,..." adjacency lines.
type SocialGraph struct {
	UserCount int
	// Degree is the average number of friends per user.
	Degree int
	// Isolated users get no friends at all.
	IsolatedRatio float64

	friends [][]int
}

// Init builds the graph from r. The same source always produces the same
// graph.
func (g *SocialGraph) Init(r *rand.Rand) {
	sets := make([]map[int]struct{}, g.UserCount)
	for i := range sets {
		sets[i] = make(map[int]struct{})
	}

	isolated := make([]bool, g.UserCount)
	for i := range isolated {
		isolated[i] = r.Float64() < g.IsolatedRatio
	}

	if g.UserCount > 1 {
		edges := g.UserCount * g.Degree / 2
		for range edges {
			a, b := r.IntN(g.UserCount), r.IntN(g.UserCount)
			if a == b || isolated[a] || isolated[b] {
				continue
			}
			sets[a][b] = struct{}{}
			sets[b][a] = struct{}{}
		}
	}

	g.friends = make([][]int, g.UserCount)
	for i, set := range sets {
		list := make([]int, 0, len(set))
		for f := range set {
			list = append(list, f)
		}
		slices.Sort(list)
		g.friends[i] = list
	}
}

// Users returns the number of adjacency lines WriteLine can produce.
func (g *SocialGraph) Users() int {
	return len(g.friends)
}

// WriteLine writes the adjacency line of user i.
func (g *SocialGraph) WriteLine(w io.Writer, i int) error {
	var sb strings.Builder
	sb.WriteString(UserID(i))
	sb.WriteByte('\t')
	for j, f := range g.friends[i] {
		if j > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(UserID(f))
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

func (g *SocialGraph) Description() string {
	return "Symmetric friendship graph: {user_id}\\t{friend_id},{friend_id},..."
}

func UserID(i int) string {
	return userPrefix + strconv.Itoa(i)
}
