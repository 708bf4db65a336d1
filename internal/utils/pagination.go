package utils

type Page struct {
	Number int
	IsLink bool
}

type Pagination struct {
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Pages       []Page
}

// TotalPages is ceil(total/pageSize).
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// PageOffset returns the row offset of a 1-based page.
func PageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// GeneratePagination generates a list of pages for a pagination component.
// It shows a limited number of pages around the current page, plus the first and last pages.
func GeneratePagination(currentPage, totalPages int) *Pagination {
	if totalPages <= 1 {
		return nil
	}

	var pages []Page
	window := 2 // Number of pages to show on each side of the current page

	// Always add the first page
	pages = append(pages, Page{Number: 1, IsLink: true})

	// Add ellipsis if needed
	if currentPage > window+2 {
		pages = append(pages, Page{Number: 0, IsLink: false}) // Ellipsis
	}

	start := max(2, currentPage-window)
	end := min(totalPages-1, currentPage+window)
	for i := start; i <= end; i++ {
		pages = append(pages, Page{Number: i, IsLink: true})
	}

	if currentPage < totalPages-(window+1) {
		pages = append(pages, Page{Number: 0, IsLink: false}) // Ellipsis
	}

	pages = append(pages, Page{Number: totalPages, IsLink: true})

	// Remove duplicates that might occur if window is large
	finalPages := []Page{}
	seen := make(map[int]bool)
	for _, p := range pages {
		if p.Number == currentPage {
			p.IsLink = false
		}
		if p.Number == 0 {
			finalPages = append(finalPages, p)
			continue
		}
		if !seen[p.Number] {
			finalPages = append(finalPages, p)
			seen[p.Number] = true
		}
	}

	return &Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		PrevPage:    currentPage - 1,
		NextPage:    currentPage + 1,
		Pages:       finalPages,
	}
}
