// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RecipeFileNotFoundId Id = iota + 1
	SyntaxErrorId
	UnknownRecipeId
	DependencyCycleId
	ArgumentErrorId
	ExecutionFailedId
	ShellNotFoundId
	ConfigLoadFailedId
	InvalidRuntimeId
	EnvFileErrorId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // reference documentation for the affected feature
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the page as terminal Markdown using the given glamour style
// ("dark", "light", "notty" or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(slices.Clone(i.docLinks), i.extLinks...) {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	recipeFileNotFoundIssue = &Issue{
		id: RecipeFileNotFoundId,
		mdMsg: `
# No recipe file found!

runner looks for a file named ` + "`Runfile`" + `, ` + "`runfile`" + ` or ` + "`.runfile`" + `
in the current directory and then in every parent directory.

## Things you can try:
- Create a Runfile at the root of your project:
~~~
build:
    go build ./...
~~~

- Point runner at a file explicitly:
~~~
$ runner --file path/to/Runfile build
~~~`,
	}

	syntaxErrorIssue = &Issue{
		id: SyntaxErrorId,
		mdMsg: `
# The recipe file has a syntax error!

The error message names the line that could not be parsed.

## Common causes:
- A recipe header without the trailing ` + "`:`" + `
- Body lines that are not indented
- A recipe defined twice
- A parameter without a default after one with a default

## Things you can try:
- Compare the line with this layout:
~~~
# Deploy to an environment.
deploy env='staging' +targets: build
    ./deploy.sh {{env}} {{targets}}
~~~`,
	}

	unknownRecipeIssue = &Issue{
		id: UnknownRecipeId,
		mdMsg: `
# Recipe not found!

The requested recipe, or a dependency of it, is not defined in the recipe file.

## Things you can try:
- List the available recipes:
~~~
$ runner --list
~~~

- Check the spelling; recipe names are case sensitive
- Make sure you are in the right project, or pass ` + "`--file`",
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Recipes depend on each other in a loop, so no order can satisfy them.

## Things you can try:
- Follow the cycle printed above and remove one of its edges
- Move the shared steps into a new recipe both sides depend on`,
	}

	argumentErrorIssue = &Issue{
		id: ArgumentErrorId,
		mdMsg: `
# Wrong arguments!

Arguments are bound to recipe parameters in order. Parameters with a
default are optional, and a trailing ` + "`+param`" + ` or ` + "`*param`" + ` takes every
remaining argument.

## Things you can try:
- Show the recipe signature:
~~~
$ runner --show <recipe>
~~~

- Separate targets from arguments with ` + "`--`" + `:
~~~
$ runner deploy -- production
~~~`,
	}

	executionFailedIssue = &Issue{
		id: ExecutionFailedId,
		mdMsg: `
# A recipe line failed!

runner stops at the first line that exits with a non-zero status and
exits with the same status.

## Things you can try:
- Run the failing line by hand from the recipe file's directory
- Prefix the line with ` + "`-`" + ` if its failure should be ignored
- Preview the expanded lines without running them:
~~~
$ runner --dry-run <recipe>
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

The native runtime could not find a shell to run recipe lines with.

## Things you can try:
- Install a POSIX shell and make sure it is in your PATH
- Choose a shell explicitly:
~~~
$ runner --shell "bash -c" build
~~~

- Use the built-in shell instead:
~~~
$ runner --runtime virtual build
~~~`,
		extLinks: []HttpLink{"https://github.com/mvdan/sh"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the path runner uses and the defaults it falls back to:
~~~
$ runner --verbose --list
~~~

- Fix the field named in the error, or remove the file to use defaults
- Valid runtimes are ` + "`native`" + ` and ` + "`virtual`" + `; valid color schemes are
  ` + "`auto`" + `, ` + "`dark`" + ` and ` + "`light`",
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	invalidRuntimeIssue = &Issue{
		id: InvalidRuntimeId,
		mdMsg: `
# Invalid runtime!

The runtime chosen with ` + "`--runtime`" + `, ` + "`RUNNER_RUNTIME`" + ` or the config file is
not one runner knows.

## Available runtimes:
- ` + "`native`" + `: run each line with the system shell
- ` + "`virtual`" + `: run each line with the built-in POSIX shell interpreter`,
		extLinks: []HttpLink{"https://github.com/mvdan/sh"},
	}

	envFileErrorIssue = &Issue{
		id: EnvFileErrorId,
		mdMsg: `
# Failed to load an env file!

Env files hold one ` + "`KEY=VALUE`" + ` pair per line. Blank lines and lines
starting with ` + "`#`" + ` are ignored, and values may be quoted.

## Things you can try:
- Check that the file exists relative to the current directory
- Append ` + "`?`" + ` to the path to make the file optional:
~~~
$ runner --env-file local.env? build
~~~`,
	}

	issues = map[Id]*Issue{
		recipeFileNotFoundIssue.Id(): recipeFileNotFoundIssue,
		syntaxErrorIssue.Id():        syntaxErrorIssue,
		unknownRecipeIssue.Id():      unknownRecipeIssue,
		dependencyCycleIssue.Id():    dependencyCycleIssue,
		argumentErrorIssue.Id():      argumentErrorIssue,
		executionFailedIssue.Id():    executionFailedIssue,
		shellNotFoundIssue.Id():      shellNotFoundIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		invalidRuntimeIssue.Id():     invalidRuntimeIssue,
		envFileErrorIssue.Id():       envFileErrorIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id - b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
