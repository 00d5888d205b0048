package anilist

const mediaFields = `
	id
	idMal
	title {
		romaji
		english
		native
	}
	description
	episodes
	status
	format
	startDate {
		year
		month
		day
	}
	season
	seasonYear
	genres
	averageScore
	popularity
	studios(isMain: true) {
		nodes {
			name
		}
	}
	coverImage {
		large
		medium
	}
	bannerImage
	trailer {
		id
		site
		thumbnail
	}
`

const pageQuery = `
query ($page: Int, $perPage: Int, $sort: [MediaSort], $search: String, $genre: [String], $season: MediaSeason, $seasonYear: Int) {
	Page(page: $page, perPage: $perPage) {
		pageInfo {
			currentPage
			hasNextPage
		}
		media(type: ANIME, sort: $sort, search: $search, genre_in: $genre, season: $season, seasonYear: $seasonYear, isAdult: false) {` + mediaFields + `
		}
	}
}
`

const mediaQuery = `
query ($id: Int, $idMal: Int) {
	Media(id: $id, idMal: $idMal, type: ANIME) {` + mediaFields + `
		rankings {
			rank
			type
			allTime
		}
		characters(page: 1, perPage: 10, sort: [ROLE, RELEVANCE]) {
			edges {
				role
				node {
					name {
						full
					}
					image {
						large
					}
				}
			}
		}
		relations {
			edges {
				relationType
				node {
					id
					idMal
					title {
						romaji
						english
					}
					coverImage {
						large
					}
					averageScore
					startDate {
						year
					}
				}
			}
		}
	}
}
`
