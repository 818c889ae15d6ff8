package memory

import "github.com/peladahub/pelada-manager/internal/domain/player"

// SeedPlayers is the demo roster used when the service runs without a
// database.
func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: "p-careca", Name: "Careca", SkillRating: 5},
		{ID: "p-dinho", Name: "Dinho", SkillRating: 5},
		{ID: "p-serginho", Name: "Serginho", SkillRating: 4},
		{ID: "p-leo", Name: "Leozinho", SkillRating: 4},
		{ID: "p-rafa", Name: "Rafa", SkillRating: 4},
		{ID: "p-magrao", Name: "Magrao", SkillRating: 3},
		{ID: "p-tonho", Name: "Tonho", SkillRating: 3},
		{ID: "p-beto", Name: "Beto", SkillRating: 3},
		{ID: "p-nando", Name: "Nando", SkillRating: 3},
		{ID: "p-pedrao", Name: "Pedrao", SkillRating: 2},
		{ID: "p-juca", Name: "Juca", SkillRating: 2},
		{ID: "p-zeca", Name: "Zeca", SkillRating: 2},
		{ID: "p-gui", Name: "Gui", SkillRating: 2},
		{ID: "p-fabinho", Name: "Fabinho", SkillRating: 1},
	}
}
