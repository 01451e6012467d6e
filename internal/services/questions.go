package services

import (
	"fmt"

	"ticketbot/pkg"
)

// QuestionService serves the fixed questionnaire of each role type
type QuestionService struct {
	sets map[pkg.RoleType][]string
}

// NewQuestionService creates the service with the built-in question sets,
// replacing any set present in overrides
func NewQuestionService(overrides map[pkg.RoleType][]string) (*QuestionService, error) {
	sets := map[pkg.RoleType][]string{
		pkg.RoleModerator:    moderatorQuestions,
		pkg.RoleAdmin:        adminQuestions,
		pkg.RoleBotDeveloper: botDeveloperQuestions,
	}
	for rt, questions := range overrides {
		if !rt.Valid() {
			return nil, fmt.Errorf("unknown role type %q", rt)
		}
		if len(questions) == 0 {
			return nil, fmt.Errorf("role type %q has no questions", rt)
		}
		sets[rt] = questions
	}
	return &QuestionService{sets: sets}, nil
}

// Questions returns a copy of the question list for rt
func (s *QuestionService) Questions(rt pkg.RoleType) ([]string, error) {
	set, ok := s.sets[rt]
	if !ok {
		return nil, fmt.Errorf("no questions for role type %q", rt)
	}
	out := make([]string, len(set))
	copy(out, set)
	return out, nil
}

var moderatorQuestions = []string{
	"1. Tell us about yourself.",
	"2. What is your previous moderation experience?",
	"3. How would you handle a situation where a user is spamming in chat?",
	"4. Why do you want to join our staff team?",
	"5. Describe a time when you resolved a conflict successfully.",
	"6. How much time can you dedicate to moderating the server?",
	"7. What qualities do you think make a good moderator?",
	"8. How would you handle a disagreement with another staff member?",
	"9. Provide an example of a difficult decision you had to make.",
	"10. How would you ensure consistency among the moderation team?",
}

var adminQuestions = []string{
	"1. What strategies would you use to manage server growth?",
	"2. How would you handle a major server crisis?",
	"3. Describe your experience with server management tools.",
	"4. What steps would you take to foster a positive community?",
	"5. How would you balance fairness and strictness in moderation?",
	"6. What measures would you take to prevent server toxicity?",
	"7. How would you train new moderators?",
	"8. What leadership qualities do you possess?",
	"9. How would you oversee the entire moderation team?",
	"10. What is your vision for the future of this server?",
}

var botDeveloperQuestions = []string{
	"1. What programming languages are you proficient in? Please provide examples of projects you've worked on.",
	"2. Have you contributed to open-source projects or collaborated with others on development? If so, please describe.",
	"3. How would you handle bugs or issues in your bot? Provide an example of a bug you fixed.",
	"4. Why do you want to develop bots for SolBots specifically?",
	"5. Describe your experience with APIs and webhooks. Have you integrated third-party services into your bots?",
	"6. How would you ensure your bot is secure and reliable? What steps do you take to prevent vulnerabilities?",
	"7. What steps would you take to optimize bot performance? Have you worked on performance optimization before?",
	"8. How would you handle feature requests from the community? Provide an example of implementing a requested feature.",
	"9. Describe a time when you had to debug a complex issue. Walk us through your process.",
	"10. What measures would you take to ensure your bot is user-friendly and accessible?",
	"11. How would you handle a situation where your bot causes unintended consequences? Provide an example.",
	"12. What steps would you take to maintain and update your bot regularly? How do you stay up-to-date with changes?",
	"13. How would you collaborate with other developers or staff members? Describe your teamwork approach.",
	"14. Describe your experience with version control systems like Git. Have you used GitHub or GitLab?",
	"15. What steps would you take to document your bot's functionality? Why is documentation important?",
	"16. How would you handle feedback or criticism about your bot? Provide an example of addressing feedback.",
	"17. What is your approach to testing and quality assurance? Do you write unit tests or integration tests?",
	"18. How would you ensure your bot integrates seamlessly with the server? Describe your integration strategy.",
	"19. What is your vision for the future of bots in this server? How would you improve SolBots?",
	"20. How would you handle a situation where your bot is misused by users? Provide an example of mitigating misuse.",
}
