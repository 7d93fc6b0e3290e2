package prompt

// Built-in fallback templates, used when a repository carries none. Both ask
// the agent to emit the completion marker: that literal is the loop's only
// completion signal.

const builtinPlanTemplate = `You are working in planning mode on the project at {{PROJECT_PATH}}.

Read the specifications under {{PROJECT_PATH}}/specs and the current plan in
{{PROJECT_PATH}}/PLAN.md if it exists. Produce or refine PLAN.md: an ordered
task list with checkboxes, smallest useful tasks first. Use the smart model
({{SMART_MODEL}}) judgment for sequencing; leave implementation to build mode.

Do exactly one planning pass, then stop.

When the plan is complete and every task is actionable, output exactly:
<promise>COMPLETE</promise>
`

const builtinBuildTemplate = `You are working in build mode on the project at {{PROJECT_PATH}}.

Open {{PROJECT_PATH}}/PLAN.md, pick the first unchecked task, implement it
fully (code and tests), and check it off. Keep changes minimal and focused on
that single task. Prefer the fast model ({{FAST_MODEL}}) for mechanical edits
and the smart model ({{SMART_MODEL}}) for design decisions.

Do exactly one task per run, then stop.

When every task in PLAN.md is checked off and the project builds clean,
output exactly:
<promise>COMPLETE</promise>
`

func builtinTemplate(mode string) string {
	if mode == "plan" {
		return builtinPlanTemplate
	}
	return builtinBuildTemplate
}
