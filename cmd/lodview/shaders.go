package main

import (
	"log"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// program is the single shader used by the viewer: per-vertex color with a
// fixed directional light.
type program struct {
	id   uint32
	uMVP int32
}

const vertexShaderSource = `
#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec3 aColor;

uniform mat4 uMVP;

out vec3 vColor;

void main() {
    gl_Position = uMVP * vec4(aPos, 1.0);
    vec3 l = normalize(vec3(0.4, 0.8, 0.6));
    float shade = 0.35 + 0.65 * abs(dot(normalize(aNormal), l));
    vColor = aColor * shade;
}
` + "\x00"

const fragmentShaderSource = `
#version 330 core
in vec3 vColor;
out vec4 FragColor;

void main() {
    FragColor = vec4(vColor, 1.0);
}
` + "\x00"

func newProgram() *program {
	p := &program{}

	vertexShader := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	defer gl.DeleteShader(vertexShader)

	fragmentShader := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	defer gl.DeleteShader(fragmentShader)

	p.id = gl.CreateProgram()
	gl.AttachShader(p.id, vertexShader)
	gl.AttachShader(p.id, fragmentShader)
	gl.LinkProgram(p.id)

	var status int32
	gl.GetProgramiv(p.id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(p.id, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(p.id, logLength, nil, gl.Str(logText))
		log.Fatalf("Shader linking failed: %s", logText)
	}

	p.uMVP = gl.GetUniformLocation(p.id, gl.Str("uMVP\x00"))
	gl.UseProgram(p.id)
	return p
}

func (p *program) setMVP(m [16]float32) {
	gl.UniformMatrix4fv(p.uMVP, 1, false, &m[0])
}

func compileShader(source string, shaderType uint32) uint32 {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		log.Fatalf("Shader compilation failed: %s", logText)
	}
	return shader
}
