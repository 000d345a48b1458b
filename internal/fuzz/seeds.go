package fuzztests

import "testing"

const maxFuzzInput = 1 << 16 // 64 KiB

var templateSeeds = []string{
	"",
	"<p>{{ product.title | upcase | append: suffix }}</p>",
	"{% assign x = 1 %}\n{{ y }}\n",
	"{%- if a -%}x{% elsif b %}y{% else %}z{%- endif -%}",
	"{% for item in cart.items %}{{ item | json }}{% endfor %}",
	"{% case n %}{% when 1 %}one{% when 2 %}two{% endcase %}",
	"{% raw %}{{ not parsed }}{% endraw %}{% comment %}{% if %}{% endcomment %}",
	"{% render 'card', product: product %}{% section 'header' %}",
	"{{x}}{{ y}}{%if z%}{%endif%}",
	"{% if %}",
	"{{ unclosed",
	"{% endif %}",
	"Café {{ 'x' | img_url: '100x' }}",
}

var dataSeeds = []string{
	"{}",
	`{"a": {"b": [1, true, null]}, "c": "hé"}`,
	"/* header */\n{\n  // note\n  \"a\": 1\n}\n",
	`{"general": {"hello": "Hello", "items": {"one": "1 item", "other": "{{ count }} items"}}}`,
	`{"a": 1,}`,
	`[1 2]`,
	`"abc`,
	`{"a": "é\n"}`,
}

func clamp(input string) string {
	if len(input) > maxFuzzInput {
		return input[:maxFuzzInput]
	}
	return input
}

func addSeeds(f *testing.F, seeds []string) {
	for _, s := range seeds {
		f.Add(s)
	}
}
