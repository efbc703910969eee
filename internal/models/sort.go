package models

import "sort"

// SortPosts orders posts in place: number ascending, then date descending,
// then slug ascending.
func SortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.Slug < b.Slug
	})
}
