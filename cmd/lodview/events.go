package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// eventHandlers turns input into camera moves and engine property changes.
type eventHandlers struct {
	v *viewer

	isDragging   bool
	lastX, lastY float64
}

func newEventHandlers(v *viewer) *eventHandlers {
	eh := &eventHandlers{v: v}
	w := v.window
	w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press || action == glfw.Repeat {
			eh.handleKey(key)
		}
	})
	w.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft {
			eh.isDragging = action == glfw.Press
		}
	})
	w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if eh.isDragging {
			eh.v.camera.rotate(-(x-eh.lastX)*0.01, (y-eh.lastY)*0.01)
		}
		eh.lastX, eh.lastY = x, y
	})
	w.SetScrollCallback(func(_ *glfw.Window, _, dy float64) {
		eh.v.camera.zoom(dy)
	})
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, _, h int) {
		eh.v.setViewportHeight(h)
	})
	return eh
}

func (eh *eventHandlers) handleKey(key glfw.Key) {
	m := eh.v.manager
	switch key {
	case glfw.KeyEscape, glfw.KeyQ:
		eh.v.window.SetShouldClose(true)
	case glfw.KeyW:
		eh.v.wireframe = !eh.v.wireframe
	case glfw.KeyC:
		m.SetCrackFilling(!m.CrackFilling())
		viewerLogger.Printf("crack filling %v", m.CrackFilling())
	case glfw.KeyU:
		if err := m.SetAdaptive(!m.Adaptive()); err != nil {
			viewerLogger.Printf("adaptive: %v", err)
		}
		viewerLogger.Printf("adaptive %v", m.Adaptive())
	case glfw.KeyEqual, glfw.KeyKPAdd:
		m.SetPixelTolerance(m.PixelTolerance() / 1.5)
		viewerLogger.Printf("pixel tolerance %.2f", m.PixelTolerance())
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		m.SetPixelTolerance(m.PixelTolerance() * 1.5)
		viewerLogger.Printf("pixel tolerance %.2f", m.PixelTolerance())
	case glfw.KeyRightBracket:
		if err := m.SetMaxComputeDepth(m.MaxComputeDepth() + 1); err != nil {
			viewerLogger.Printf("depth: %v", err)
		}
		m.SetMaxRenderDepth(m.MaxComputeDepth())
	case glfw.KeyLeftBracket:
		if err := m.SetMaxComputeDepth(m.MaxComputeDepth() - 1); err != nil {
			viewerLogger.Printf("depth: %v", err)
		}
		m.SetMaxRenderDepth(m.MaxComputeDepth())
	case glfw.KeyT:
		t := m.SurfaceTension() + 0.25
		if t > 1 {
			t = 0
		}
		if err := m.SetSurfaceTension(t); err != nil {
			viewerLogger.Printf("tension: %v", err)
		}
	}
}
