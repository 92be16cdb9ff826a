package coach

import "strings"

// Task describes one coaching role and the prompt it sends.
type Task struct {
	Name           string
	Role           string
	Goal           string
	Backstory      string
	Description    string
	ExpectedOutput string
	Heading        string
}

const (
	placeholderResume   = "{resume}"
	placeholderLocation = "{location}"
)

var FeedbackTask = Task{
	Name:      "feedback",
	Role:      "Professional Resume Advisor",
	Goal:      "Give feedback on the resume to make it stand out in the job market.",
	Backstory: "With a strategic mind and an eye for detail, you excel at providing feedback on resumes to highlight the most relevant skills and experiences.",
	Description: "Give feedback on the resume to make it stand out for recruiters. Review every section, including the summary, work experience, skills, and education. " +
		"Suggest to add relevant sections if they are missing. Also give an overall score to the resume out of 10.  This is the resume: {resume}",
	ExpectedOutput: "The overall score of the resume followed by the feedback in bullet points.",
	Heading:        "Resume Feedback",
}

var RewriteTask = Task{
	Name:      "rewrite",
	Role:      "Professional Resume Writer",
	Goal:      "Based on the feedback received from Resume Advisor, make changes to the resume to make it stand out in the job market.",
	Backstory: "With a strategic mind and an eye for detail, you excel at refining resumes based on the feedback to highlight the most relevant skills and experiences.",
	Description: "Rewrite the resume based on the feedback to make it stand out for recruiters. You can adjust and enhance the resume but don't make up facts. " +
		"Review and update every section, including the summary, work experience, skills, and education to better reflect the candidate's abilities. This is the resume: {resume}",
	ExpectedOutput: "Resume in markdown format that effectively highlights the candidate's qualifications and experiences",
	Heading:        "Improved Resume",
}

var JobSearchTask = Task{
	Name:      "jobs",
	Role:      "Senior Recruitment Consultant",
	Goal:      "Find the 5 most relevant, recently posted jobs based on the improved resume received from resume advisor and the location preference",
	Backstory: "As a senior recruitment consultant, your prowess in finding the most relevant jobs based on the resume and location preference is unmatched.",
	Description: "Find the 5 most relevant recent job postings based on the resume received from resume advisor and location preference. " +
		"This is the preferred location: {location}. Use the tools to gather relevant content and shortlist the 5 most relevant, recent job openings",
	ExpectedOutput: "A bullet point list of the 5 job openings, with the appropriate links and detailed description about each job, in markdown format",
	Heading:        "Relevant Job Roles",
}

// FeedbackPrompt formats the feedback description with the résumé text.
func FeedbackPrompt(resume string) string {
	return strings.ReplaceAll(FeedbackTask.Description, placeholderResume, resume)
}

// RewritePrompt formats the rewrite description with the résumé text.
func RewritePrompt(resume string) string {
	return strings.ReplaceAll(RewriteTask.Description, placeholderResume, resume)
}

// JobSearchPrompt formats the job search description with the location.
func JobSearchPrompt(location string) string {
	return strings.ReplaceAll(JobSearchTask.Description, placeholderLocation, location)
}

// WithHeading prefixes text with the task's Markdown heading.
func (t Task) WithHeading(text string) string {
	return "## " + t.Heading + ":\n\n" + text
}
