package actions

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"maven/app/client/model"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	mdhtml "github.com/yuin/goldmark/renderer/html"
)

const aiDisabledMessage = "⚠️ AI features are disabled. API key not configured."

const planPrompt = `Create a detailed, structured plan for the following topic: "%s". Use markdown for formatting, including headers, bullet points, and checklists (e.g., "- [ ] Task").`

const wireframePrompt = `Generate a textual wireframe or structural layout for the following description: "%s". Use a combination of simple text, symbols, and ASCII-art like boxes to represent components like buttons, inputs, images, and text blocks. The output should be clear and enclosed in a code block. For example:
+----------------------------------+
| [Logo]      Nav | Link1 | Link2  |
+----------------------------------+
|                                  |
|      <Image Placeholder>         |
|                                  |
+----------------------------------+
|       [Product Title]            |
|                                  |
|  "Product description goes here" |
|                                  |
|      <Button: Add to Cart>       |
+----------------------------------+`

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(mdhtml.WithHardWraps()),
)

func (c *catalog) createPlan(ctx context.Context, topic string) (string, error) {
	if c.client == nil {
		return aiDisabledMessage, nil
	}

	plan, err := model.Prompt(ctx, c.client, fmt.Sprintf(planPrompt, topic))
	if err == nil {
		plan, err = renderMarkdown(plan)
	}
	if err != nil {
		slog.Error("Failed to generate plan", "topic", topic, "error", err)
		return fmt.Sprintf("⚠️ Sorry, I couldn't generate a plan for \"%s\". %s", topic, err.Error()), nil
	}

	if _, err = c.ws.NewPage(ctx, "Plan for "+topic, plan); err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ I've created a new note with a plan for \"%s\".", topic), nil
}

func (c *catalog) createWireframe(ctx context.Context, description string) (string, error) {
	if c.client == nil {
		return aiDisabledMessage, nil
	}

	wireframe, err := model.Prompt(ctx, c.client, fmt.Sprintf(wireframePrompt, description))
	if err != nil {
		slog.Error("Failed to generate wireframe", "description", description, "error", err)
		return fmt.Sprintf("⚠️ Sorry, I was unable to create the wireframe for \"%s\". %s", description, err.Error()), nil
	}

	content := `<pre style="white-space: pre-wrap; font-family: monospace; font-size: 14px; line-height: 1.2;">` +
		html.EscapeString(stripCodeFence(wireframe)) +
		`</pre>`

	if _, err = c.ws.NewPage(ctx, "Wireframe for "+description, content); err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ Done! I've created a new note with a wireframe for \"%s\".", description), nil
}

func renderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render plan: %w", err)
	}

	return buf.String(), nil
}

// stripCodeFence drops a surrounding ``` fence and its language tag.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if newline := strings.IndexByte(text, '\n'); newline >= 0 {
		text = text[newline+1:]
	}
	text = strings.TrimSuffix(strings.TrimRight(text, " \n"), "```")

	return strings.Trim(text, "\n")
}
