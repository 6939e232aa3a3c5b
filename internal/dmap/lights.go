package dmap

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/dmap/pkg/geom"
	"github.com/Faultbox/dmap/pkg/proc"
	"github.com/Faultbox/dmap/pkg/scene"
)

// Light entity keys.
const (
	keyLightRadius = "light_radius"
	keyNoShadows   = "noshadows"
)

// defaultLightRadius applies to lights without a light_radius key.
const defaultLightRadius = 300

// maxGroupLights caps the lights carving a single group.
const maxGroupLights = 16

// collectLights returns the point lights of the scene in entity order.
func (c *compiler) collectLights(s *scene.Scene) []proc.Light {
	var lights []proc.Light
	for i, e := range s.Entities {
		if e.Classname() != scene.ClassLight {
			continue
		}
		origin, ok := e.Origin()
		if !ok {
			c.log.Warn("light without origin", zap.Int("entity", i))
			continue
		}
		radius, ok := e.VectorForKey(keyLightRadius)
		if !ok {
			radius = mgl64.Vec3{defaultLightRadius, defaultLightRadius, defaultLightRadius}
		}
		if radius[0] <= 0 || radius[1] <= 0 || radius[2] <= 0 {
			c.log.Warn("light with non-positive radius", zap.Int("entity", i))
			continue
		}
		name := e.Name()
		if name == "" {
			name = fmt.Sprintf("light_%d", i)
		}
		lights = append(lights, proc.Light{
			Name:      name,
			Origin:    origin,
			Radius:    radius,
			NoShadows: e.BoolForKey(keyNoShadows),
		})
	}
	return lights
}

// lightsFor returns the indexes of the lights whose bounds overlap b, in
// light order.
func (c *compiler) lightsFor(b geom.Bounds) []int {
	if c.opts.NoLightCarve {
		return nil
	}
	var out []int
	for i := range c.lights {
		if !c.lights[i].Bounds().Intersects(b) {
			continue
		}
		if len(out) == maxGroupLights {
			c.stats.LightOverflows++
			break
		}
		out = append(out, i)
	}
	return out
}
